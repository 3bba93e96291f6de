package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ai-textbook/backend/cmd/cli/config"
	"github.com/ai-textbook/backend/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitAuth registers account commands (signup, login, whoami) on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(signupCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(whoamiCmd())
}

// signupCmd creates a new account.
func signupCmd() *cobra.Command {
	var username, email, password, softwareBg, hardwareBg string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an AI Textbook account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("username, email and password are required")
			}

			payload := map[string]string{
				"username":            username,
				"email":               email,
				"password":            password,
				"software_background": softwareBg,
				"hardware_background": hardwareBg,
			}
			var created struct {
				ID       int    `json:"id"`
				Username string `json:"username"`
				Email    string `json:"email"`
			}
			if err := postJSON("/auth/signup", payload, &created); err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}

			fmt.Printf("Account created: id=%d username=%s email=%s\n", created.ID, created.Username, created.Email)
			fmt.Println("Run \"aitb login\" to get a token.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (3-50 characters)")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&softwareBg, "software-background", "", "Your software background, used for personalization")
	cmd.Flags().StringVar(&hardwareBg, "hardware-background", "", "Your hardware background, used for personalization")

	return cmd
}

// loginCmd authenticates and stores the bearer token locally.
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the AI Textbook API",
		Long:  "Authenticate with the AI Textbook API and store a bearer token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			form := url.Values{"username": {username}, "password": {password}}
			resp, err := http.Post(config.APIURL()+"/auth/login",
				"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("login failed: %s", readError(resp))
			}

			var loginResp struct {
				AccessToken string `json:"access_token"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
				return fmt.Errorf("failed to decode login response: %w", err)
			}
			if loginResp.AccessToken == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}

			if err := config.SaveToken(loginResp.AccessToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Println("Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

// whoamiCmd shows the profile behind the stored token.
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the stored token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			req, err := http.NewRequest("GET", config.APIURL()+"/auth/me", nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to fetch profile: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("not authenticated: %s", readError(resp))
			}

			var me struct {
				ID                 int    `json:"id"`
				Username           string `json:"username"`
				Email              string `json:"email"`
				SoftwareBackground string `json:"software_background"`
				HardwareBackground string `json:"hardware_background"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
				return fmt.Errorf("failed to decode profile: %w", err)
			}

			output.RenderTable(
				[]string{"ID", "Username", "Email", "Software Background", "Hardware Background"},
				[][]interface{}{{me.ID, me.Username, me.Email, me.SoftwareBackground, me.HardwareBackground}},
			)
			return nil
		},
	}
}

func postJSON(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(config.APIURL()+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s", readError(resp))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// readError extracts the "error" field from an API error body, falling back to the raw body.
func readError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(body))
}
