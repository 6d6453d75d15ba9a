package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var reportReason string

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage your posts",
	Long:  "Commands for your own posts: list the ones about to expire, extend them, and report others' posts.",
}

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List your posts expiring within the next few days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		return getExpiring()
	},
}

var extendCmd = &cobra.Command{
	Use:   "extend <post-id>",
	Short: "Extend a post for another 30 days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		return extendPost(args[0])
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <post-id>",
	Short: "Report a post for moderation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		return reportPost(args[0])
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportReason, "reason", "", "Optional reason for the report")

	postsCmd.AddCommand(expiringCmd)
	postsCmd.AddCommand(extendCmd)
	postsCmd.AddCommand(reportCmd)
}

func doAuthed(method, path string, payload interface{}) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, apiURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func getExpiring() error {
	body, status, err := doAuthed("GET", "/api/v1/posts/expiring", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", status, string(body))
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var parsed struct {
		Posts []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			ExpiresAt string `json:"expires_at"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Posts) == 0 {
		fmt.Println("Nothing expiring soon.")
		return nil
	}
	for _, p := range parsed.Posts {
		fmt.Printf("%s  expires %s\n    %s\n", p.Title, p.ExpiresAt, p.ID)
	}
	return nil
}

func extendPost(id string) error {
	body, status, err := doAuthed("POST", "/api/v1/posts/"+id+"/extend", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", status, string(body))
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println("Post extended for another 30 days.")
	return nil
}

func reportPost(id string) error {
	var payload interface{}
	if reportReason != "" {
		payload = map[string]string{"reason": reportReason}
	}

	body, status, err := doAuthed("POST", "/api/v1/posts/"+id+"/report", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", status, string(body))
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var parsed struct {
		AlreadyReported bool `json:"already_reported"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.AlreadyReported {
		fmt.Println("You had already reported this post.")
	} else {
		fmt.Println("Report recorded. Thank you.")
	}
	return nil
}
