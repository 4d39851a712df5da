// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package diagnose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"
)

// diagnosisPromptTmpl instructs the model to classify one unresolved
// citation and extract search hints, answering in a fixed labelled-field
// format that parseResponse understands.
var diagnosisPromptTmpl = template.Must(template.New("diagnosis").Parse(`You are an academic editor. Analyze this reference entry:
'{{.Citation}}'
No bibliographic database could resolve it. Complete the following tasks.

**Task 1 - Classification**: decide which of these it is:
- BOOK: a book or book chapter
- CONF: a conference paper or proceedings
- PREPRINT: a preprint (arXiv, bioRxiv, etc.)
- WEBSITE: a web page, news item, or other non-academic resource
- PATENT: a patent
- HIGH_RISK: looks like a journal article but the formatting is odd, the journal name is dubious, or it may be fabricated

**Task 2 - Extraction**:
- For WEBSITE: extract the URL
- For BOOK (chapter in a book): extract the chapter title, book title, and publisher separately
- For other types: extract the paper/article title
- Extract the first author's surname (surname only)
- Extract the year

**Task 3 - Search query**:
Build an optimized Google Scholar query from the extracted fields. Rules:
- For BOOK: combine chapter title, book title, author, publisher, and year
- For short titles (fewer than 5 words): always add the author surname and year
- Wrap the full title phrase in double quotes
- Example format: "Chapter Title" "Book Title" AuthorSurname Publisher 2023

Answer in exactly this format, with no explanations:
TYPE: [classification tag]
CHAPTER: [chapter title, BOOK only, otherwise leave empty]
BOOK_TITLE: [book title, BOOK only, otherwise leave empty]
PUBLISHER: [publisher, BOOK only, otherwise leave empty]
TITLE: [paper/article title, non-BOOK types]
AUTHOR: [first author surname]
YEAR: [year]
URL: [URL, WEBSITE only]
SEARCH_QUERY: [optimized Google Scholar query]`))

// chatCompletionsURL is the DashScope OpenAI-compatible chat endpoint.
// Package-level var for test substitution.
var chatCompletionsURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"

// QwenBackend calls a Qwen model through the DashScope
// OpenAI-compatible API.
type QwenBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify sends the diagnosis prompt for one citation and returns the
// raw model reply.
func (b *QwenBackend) Classify(ctx context.Context, citation string) (string, error) {
	var prompt bytes.Buffer
	if err := diagnosisPromptTmpl.Execute(&prompt, struct{ Citation string }{Citation: citation}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt.String()},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatCompletionsURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling classification API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("classification API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding classification response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("classification API returned no choices")
	}
	return cResp.Choices[0].Message.Content, nil
}
