// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref queries the Crossref works API: direct DOI lookup and
// free-text bibliographic search. Both degrade to "no candidate" on any
// transport or payload failure; the caller decides what that means.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/refcheck/internal/extract"
	"github.com/pdiddy/refcheck/internal/httputil"
	"github.com/pdiddy/refcheck/pkg/types"
)

// worksBase is the Crossref works endpoint. Declared as a var so tests can
// substitute an httptest server.
var worksBase = "https://api.crossref.org/works"

// Client talks to the Crossref API.
type Client struct {
	Client *http.Client
	// Email is sent in the mailto header for polite pool access.
	Email     string
	UserAgent string
}

// New returns a Client configured from cfg.
func New(cfg types.CrossrefConfig) *Client {
	return &Client{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Email:     cfg.Email,
		UserAgent: cfg.UserAgent,
	}
}

// LookupDOI fetches the work registered under doi. It returns (nil, nil)
// when the DOI is not registered, and an error only for transport or
// payload problems.
func (c *Client) LookupDOI(ctx context.Context, doi string) (*types.Candidate, error) {
	doi = extract.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	reqURL := worksBase + "/" + url.PathEscape(doi)
	work, found, err := c.fetchWork(ctx, reqURL, false)
	if err != nil {
		return nil, fmt.Errorf("crossref DOI lookup: %w", err)
	}
	if !found {
		return nil, nil
	}
	return toCandidate(work), nil
}

// Search runs a bibliographic free-text query and returns the single best
// hit, or (nil, nil) when Crossref has no suggestion. Search hits are
// unverified guesses; the verifier decides whether to trust them.
func (c *Client) Search(ctx context.Context, citation string) (*types.Candidate, error) {
	params := url.Values{
		"query.bibliographic": {citation},
		"rows":                {"1"},
	}
	work, found, err := c.fetchWork(ctx, worksBase+"?"+params.Encode(), true)
	if err != nil {
		return nil, fmt.Errorf("crossref search: %w", err)
	}
	if !found {
		return nil, nil
	}
	return toCandidate(work), nil
}

// fetchWork performs the GET and decodes either a single-work or an
// item-list response body.
func (c *Client) fetchWork(ctx context.Context, reqURL string, list bool) (*crossrefWork, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Email != "" {
		req.Header.Set("mailto", c.Email)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("crossref returned HTTP %d", resp.StatusCode)
	}

	if list {
		var sr searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return nil, false, fmt.Errorf("parsing crossref response: %w", err)
		}
		if len(sr.Message.Items) == 0 {
			return nil, false, nil
		}
		return &sr.Message.Items[0], true, nil
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, false, fmt.Errorf("parsing crossref response: %w", err)
	}
	return &wr.Message, true, nil
}

// toCandidate maps a Crossref work onto the internal Candidate, scanning
// the three places Crossref records correction and retraction notices:
// updated-by, relation, and update-to.
func toCandidate(w *crossrefWork) *types.Candidate {
	cand := &types.Candidate{
		DOI:    w.DOI,
		Volume: w.Volume,
		Issue:  w.Issue,
		Page:   w.Page,
	}
	if len(w.Title) > 0 {
		cand.Title = w.Title[0]
	}
	if len(w.ShortContainerTitle) > 0 {
		cand.JournalShort = w.ShortContainerTitle[0]
	}
	if len(w.ContainerTitle) > 0 {
		cand.JournalFull = w.ContainerTitle[0]
	}
	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		cand.Year = w.Issued.DateParts[0][0]
	}
	for _, a := range w.Author {
		cand.Authors = append(cand.Authors, types.Author{Family: a.Family, Given: a.Given})
	}

	for _, u := range w.UpdatedBy {
		kind := strings.ToLower(u.Type)
		label := strings.ToLower(u.Label)
		if kind == "correction" || strings.Contains(label, "correction") {
			cand.HasCorrection = true
			cand.CorrectionDOI = u.DOI
		}
		if kind == "retraction" || strings.Contains(label, "retraction") {
			cand.HasRetraction = true
			cand.RetractionDOI = u.DOI
		}
	}

	for relType, rels := range w.Relation {
		if len(rels) == 0 {
			continue
		}
		switch relType {
		case "is-corrected-by", "corrected-by", "has-correction":
			cand.HasCorrection = true
			if cand.CorrectionDOI == "" {
				cand.CorrectionDOI = rels[0].ID
			}
		case "is-retracted-by", "retracted-by", "has-retraction":
			cand.HasRetraction = true
			if cand.RetractionDOI == "" {
				cand.RetractionDOI = rels[0].ID
			}
		}
	}

	for _, u := range w.UpdateTo {
		label := strings.ToLower(u.Label)
		if strings.Contains(label, "correction") {
			cand.HasCorrection = true
			if u.DOI != "" {
				cand.CorrectionDOI = u.DOI
			}
		}
		if strings.Contains(label, "retract") {
			cand.HasRetraction = true
			if u.DOI != "" {
				cand.RetractionDOI = u.DOI
			}
		}
	}

	return cand
}

// Crossref API JSON structures.
type worksResponse struct {
	Message crossrefWork `json:"message"`
}

type searchResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI                 string                        `json:"DOI"`
	Title               []string                      `json:"title"`
	Author              []crossrefAuthor              `json:"author"`
	ShortContainerTitle []string                      `json:"short-container-title"`
	ContainerTitle      []string                      `json:"container-title"`
	Issued              crossrefDate                  `json:"issued"`
	Volume              string                        `json:"volume"`
	Issue               string                        `json:"issue"`
	Page                string                        `json:"page"`
	UpdatedBy           []crossrefUpdate              `json:"updated-by"`
	Relation            map[string][]crossrefRelation `json:"relation"`
	UpdateTo            []crossrefUpdate              `json:"update-to"`
}

type crossrefAuthor struct {
	Family string `json:"family"`
	Given  string `json:"given"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

type crossrefUpdate struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	DOI   string `json:"DOI"`
}

type crossrefRelation struct {
	ID string `json:"id"`
}
