package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"dukaan/backend/internal/domain"
)

// dataset is what a subcommand works on once the input file is decoded.
type dataset struct {
	store     string
	invoices  []domain.Invoice
	products  int
	owner     *domain.User
	templates *domain.MessageTemplates
}

func loadDataset(opts *options) (dataset, error) {
	raw, err := os.ReadFile(opts.file)
	if err != nil {
		return dataset{}, fmt.Errorf("read input: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return dataset{}, fmt.Errorf("input file %s is empty", opts.file)
	}

	var ds dataset
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &ds.invoices); err != nil {
			return dataset{}, fmt.Errorf("decode invoice list: %w", err)
		}
	} else {
		var doc struct {
			domain.Snapshot
			Wrapped *domain.Snapshot `json:"snapshot"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return dataset{}, fmt.Errorf("decode snapshot: %w", err)
		}
		snap := doc.Snapshot
		if doc.Wrapped != nil {
			snap = *doc.Wrapped
		}
		ds.store = snap.Store
		ds.invoices = snap.Invoices
		ds.products = len(snap.Products)
		ds.owner = snap.User
		ds.templates = snap.Templates
	}

	if s := strings.TrimSpace(opts.store); s != "" {
		ds.store = s
	}
	if ds.store == "" {
		return dataset{}, fmt.Errorf("--store is required when the input does not name a store")
	}
	return ds, nil
}
