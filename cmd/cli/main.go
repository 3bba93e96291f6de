package main

import (
	"github.com/ai-textbook/backend/cmd/cli/auth"
	"github.com/ai-textbook/backend/cmd/cli/content"
	"github.com/ai-textbook/backend/cmd/cli/root"
)

func main() {
	auth.InitAuth(root.GetRoot())
	content.InitContent(root.GetRoot())
	root.Execute()
}
