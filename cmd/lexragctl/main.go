package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lexrag/internal/infra/httpclient"
)

var (
	version = "dev"

	serverURL string
	timeout   int

	// retrieve flags
	topK            int
	threshold       float64
	includeAdjacent bool
	maxChars        int
	plainText       bool
	order           string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "lexragctl",
	Short:   "Query the lexrag retrieval service",
	Version: version,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <document-id> <question>",
	Short: "Retrieve ranked context chunks for a question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]any{
			"question":             args[1],
			"top_k":                topK,
			"similarity_threshold": threshold,
			"include_adjacent":     includeAdjacent,
			"max_chars":            maxChars,
			"order":                order,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/v1/documents/%s/retrieve", serverURL, args[0])
		raw, err := post(url, body)
		if err != nil {
			return err
		}

		if plainText {
			var resp struct {
				Context string `json:"context"`
			}
			if err := json.Unmarshal(raw, &resp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			fmt.Println(resp.Context)
			return nil
		}
		return printJSON(raw)
	},
}

var capabilityCmd = &cobra.Command{
	Use:   "capability <document-id>",
	Short: "Check whether a document supports RAG retrieval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s/v1/documents/%s/capability", serverURL, args[0])
		raw, err := get(url)
		if err != nil {
			return err
		}
		return printJSON(raw)
	},
}

func client() *http.Client {
	return httpclient.NewPooledClient(time.Duration(timeout) * time.Second)
}

func post(url string, body []byte) ([]byte, error) {
	resp, err := client().Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return readResponse(resp)
}

func get(url string) ([]byte, error) {
	resp, err := client().Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func printJSON(raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("LEXRAG_URL", "http://localhost:9020"), "lexrag server base URL")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30, "request timeout in seconds")

	retrieveCmd.Flags().IntVar(&topK, "top-k", 8, "number of chunks to select")
	retrieveCmd.Flags().Float64Var(&threshold, "threshold", 0.35, "minimum combined score")
	retrieveCmd.Flags().BoolVar(&includeAdjacent, "adjacent", true, "include adjacent chunks")
	retrieveCmd.Flags().IntVar(&maxChars, "max-chars", 8000, "context block size limit")
	retrieveCmd.Flags().BoolVar(&plainText, "text", false, "print only the formatted context block")
	retrieveCmd.Flags().StringVar(&order, "order", "relevance", "chunk order: relevance or position")

	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(capabilityCmd)
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
