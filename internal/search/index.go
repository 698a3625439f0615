package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"jobmate/posting-service/internal/posting"
)

// Page is one slice of search results. NextOffset is nil on the last page.
type Page struct {
	Hits       []Document `json:"hits"`
	Total      int        `json:"total"`
	NextOffset *int       `json:"nextOffset,omitempty"`
}

// Index implements posting.Indexer and runs candidate searches.
type Index struct {
	client    *elasticsearch.Client
	indexName string
}

// NewIndex connects to Elasticsearch and verifies the cluster answers.
func NewIndex(addresses []string, indexName string) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	return &Index{client: client, indexName: indexName}, nil
}

// Index stores the document of a published posting.
func (i *Index) Index(ctx context.Context, p posting.Posting) error {
	data, err := json.Marshal(ToDocument(p))
	if err != nil {
		return fmt.Errorf("marshal posting: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.indexName,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

// Remove deletes a posting from the index. Missing documents are not an error.
func (i *Index) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: i.indexName, DocumentID: id}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete error: %s", res.Status())
	}
	return nil
}

// Search runs f against the index.
func (i *Index) Search(ctx context.Context, f Filter) (Page, error) {
	if err := f.Validate(); err != nil {
		return Page{}, err
	}
	body, err := json.Marshal(BuildQuery(f))
	if err != nil {
		return Page{}, fmt.Errorf("marshal query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.indexName),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return Page{}, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Page{}, fmt.Errorf("search error: %s: %s", res.Status(), msg)
	}

	var sr struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return Page{}, fmt.Errorf("parse search response: %w", err)
	}

	page := Page{Hits: make([]Document, 0, len(sr.Hits.Hits)), Total: sr.Hits.Total.Value}
	for _, h := range sr.Hits.Hits {
		page.Hits = append(page.Hits, h.Source)
	}
	if next := f.Offset + len(page.Hits); len(page.Hits) > 0 && next < page.Total {
		page.NextOffset = &next
	}
	return page, nil
}

// EnsureIndex creates the index with its mapping if it doesn't exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.indexName}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.client.Indices.Create(
		i.indexName,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}
	return nil
}

const mapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"german_folding": {
					"type": "custom",
					"tokenizer": "standard",
					"filter": ["lowercase", "german_normalization", "asciifolding"]
				}
			}
		}
	},
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"companyId": {"type": "keyword"},
			"title": {
				"type": "text",
				"analyzer": "german_folding",
				"fields": {"keyword": {"type": "keyword"}}
			},
			"description": {"type": "text", "analyzer": "german_folding"},
			"category": {"type": "keyword"},
			"workMode": {"type": "keyword"},
			"employmentType": {"type": "keyword"},
			"city": {"type": "keyword"},
			"postalCode": {"type": "keyword"},
			"country": {"type": "keyword"},
			"location": {"type": "geo_point"},
			"salaryMin": {"type": "long"},
			"salaryMax": {"type": "long"},
			"currency": {"type": "keyword"},
			"interval": {"type": "keyword"},
			"salary": {"type": "keyword", "index": false},
			"skills": {"type": "keyword"},
			"languages": {"type": "keyword"},
			"benefitTags": {"type": "keyword"},
			"shifts": {"type": "keyword"},
			"tags": {"type": "keyword"},
			"featured": {"type": "boolean"},
			"urgent": {"type": "boolean"},
			"publishedAt": {"type": "date"}
		}
	}
}`
