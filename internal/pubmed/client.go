// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities for PubMed identifiers and
// retraction/correction notices attached to a DOI.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/refcheck/internal/httputil"
)

// Base URLs for the two E-utilities endpoints. Tests substitute an
// httptest server here.
var (
	esearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	esummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// Client talks to the NCBI E-utilities. All requests carry the API key;
// without a key the client is a no-op so a pipeline can run with Crossref
// evidence alone.
type Client struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// New builds a PubMed client from configuration. A zero timeout falls
// back to 30 seconds.
func New(apiKey, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		Client:    &http.Client{Timeout: timeout},
		APIKey:    apiKey,
		UserAgent: userAgent,
	}
}

// LookupIDs resolves a DOI to its PMID and PMCID. Either identifier may
// come back empty: the article may not be indexed in PubMed, or indexed
// without a PubMed Central deposit. A missing API key or empty DOI
// short-circuits to empty results without a network call.
func (c *Client) LookupIDs(ctx context.Context, doi string) (pmid, pmcid string, err error) {
	if doi == "" || c.APIKey == "" {
		return "", "", nil
	}

	pmid, err = c.searchPMID(ctx, doi)
	if err != nil || pmid == "" {
		return "", "", err
	}

	docs, err := c.summaries(ctx, pmid)
	if err != nil {
		return pmid, "", err
	}
	for _, aid := range docs[pmid].ArticleIDs {
		if aid.IDType == "pmc" {
			pmcid = aid.Value
			break
		}
	}
	return pmid, pmcid, nil
}

// Corrections checks whether PubMed links the article to retraction or
// erratum notices, and returns the notice DOIs. When a notice has no DOI
// of its own the identifier degrades to "PMID:<id>". The pmid argument
// skips the DOI-to-PMID search when the caller already resolved it.
func (c *Client) Corrections(ctx context.Context, doi, pmid string) (correctionDOI, retractionDOI string, err error) {
	if c.APIKey == "" || (doi == "" && pmid == "") {
		return "", "", nil
	}

	if pmid == "" {
		pmid, err = c.searchPMID(ctx, doi)
		if err != nil || pmid == "" {
			return "", "", err
		}
	}

	docs, err := c.summaries(ctx, pmid)
	if err != nil {
		return "", "", err
	}

	// Notices that need a second esummary round-trip to recover their DOIs.
	type notice struct {
		pmid string
		kind string
	}
	var notices []notice
	for _, ref := range docs[pmid].CommentsCorrections {
		switch ref.RefType {
		case "RetractionIn":
			notices = append(notices, notice{pmid: string(ref.ID), kind: "retraction"})
		case "ErratumIn":
			notices = append(notices, notice{pmid: string(ref.ID), kind: "correction"})
		}
	}
	if len(notices) == 0 {
		return "", "", nil
	}

	ids := make([]string, len(notices))
	for i, n := range notices {
		ids[i] = n.pmid
	}
	noticeDocs, err := c.summaries(ctx, strings.Join(ids, ","))
	if err != nil {
		return "", "", err
	}

	for _, n := range notices {
		found := ""
		for _, aid := range noticeDocs[n.pmid].ArticleIDs {
			if aid.IDType == "doi" {
				found = aid.Value
				break
			}
		}
		if found == "" {
			found = "PMID:" + n.pmid
		}
		switch n.kind {
		case "retraction":
			retractionDOI = found
		case "correction":
			correctionDOI = found
		}
	}
	return correctionDOI, retractionDOI, nil
}

// searchPMID runs esearch with term "<doi>[AID]" and returns the first
// hit, or "" when PubMed does not index the DOI.
func (c *Client) searchPMID(ctx context.Context, doi string) (string, error) {
	q := c.baseQuery()
	q.Set("term", doi+"[AID]")

	body, err := c.get(ctx, esearchBase+"?"+q.Encode())
	if err != nil {
		return "", err
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding esearch response: %w", err)
	}
	if len(parsed.Result.IDList) == 0 {
		return "", nil
	}
	return parsed.Result.IDList[0], nil
}

// summaries runs esummary for one or more comma-joined PMIDs and returns
// the per-PMID documents.
func (c *Client) summaries(ctx context.Context, ids string) (map[string]summaryDoc, error) {
	q := c.baseQuery()
	q.Set("id", ids)

	body, err := c.get(ctx, esummaryBase+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed esummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding esummary response: %w", err)
	}

	docs := make(map[string]summaryDoc, len(parsed.Result))
	for pmid, raw := range parsed.Result {
		if pmid == "uids" {
			continue
		}
		var doc summaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decoding esummary document %s: %w", pmid, err)
		}
		docs[pmid] = doc
	}
	return docs, nil
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "json")
	q.Set("api_key", c.APIKey)
	return q
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NCBI returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type summaryDoc struct {
	ArticleIDs          []articleID  `json:"articleids"`
	CommentsCorrections []commentRef `json:"commentscorrections"`
}

type articleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

type commentRef struct {
	RefType string   `json:"reftype"`
	ID      noticeID `json:"id"`
}

// noticeID tolerates the id field arriving as either a JSON string or a
// bare number; NCBI is not consistent across records.
type noticeID string

func (n *noticeID) UnmarshalJSON(data []byte) error {
	*n = noticeID(strings.Trim(string(data), `"`))
	return nil
}
