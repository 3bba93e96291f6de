package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ai-textbook/backend/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitContent registers the AI content commands (personalize, translate,
// generate, chat) on the root command. All of them need a stored token.
func InitContent(rootCmd *cobra.Command) {
	rootCmd.AddCommand(personalizeCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(chatCmd())
}

func personalizeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "personalize",
		Short: "Personalize chapter content for your stored backgrounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readContent(file)
			if err != nil {
				return err
			}
			var out struct {
				PersonalizedContent string `json:"personalized_content"`
			}
			if err := postAuthed("/personalize", map[string]string{"content": text}, &out); err != nil {
				return err
			}
			fmt.Println(out.PersonalizedContent)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "File with chapter content (default: stdin)")
	return cmd
}

func translateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate chapter content to Urdu",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readContent(file)
			if err != nil {
				return err
			}
			var out struct {
				TranslatedContent string `json:"translated_content"`
			}
			if err := postAuthed("/translate", map[string]string{"content": text}, &out); err != nil {
				return err
			}
			fmt.Println(out.TranslatedContent)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "File with chapter content (default: stdin)")
	return cmd
}

func generateCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate text from a free-form prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" {
				return fmt.Errorf("prompt is required")
			}
			var out struct {
				ResponseText string `json:"response_text"`
			}
			if err := postAuthed("/gemini/generate", map[string]string{"prompt": prompt}, &out); err != nil {
				return err
			}
			fmt.Println(out.ResponseText)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt to send")
	return cmd
}

func chatCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a single chat message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("message is required")
			}
			payload := map[string]interface{}{
				"history": []interface{}{},
				"message": message,
			}
			var out struct {
				ResponseText string `json:"response_text"`
			}
			if err := postAuthed("/gemini/chat", payload, &out); err != nil {
				return err
			}
			fmt.Println(out.ResponseText)
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "Message to send")
	return cmd
}

// readContent reads from file, or stdin when file is empty.
func readContent(file string) (string, error) {
	var data []byte
	var err error
	if file == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no content provided")
	}
	return text, nil
}

func postAuthed(path string, payload interface{}, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", config.APIURL()+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
