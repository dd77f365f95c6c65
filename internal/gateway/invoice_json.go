package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"herd-census/internal/domain"
)

var (
	inlineItemKeys = []string{"items", "lineItems", "line_items", "itens"}
	itemRowKeys    = []string{"itemRows", "item_rows", "invoiceItems", "invoice_items"}
)

// decodeDocument decodes the invoices of one stored document. A document that
// is not JSON yields a single invoice flagged Undecodable.
func decodeDocument(origin string, data []byte) []domain.RawInvoice {
	invoices, err := decodeInvoices(data)
	if err != nil {
		return []domain.RawInvoice{{Origin: origin, Undecodable: true}}
	}
	for i := range invoices {
		invoices[i].Origin = origin
	}
	return invoices
}

// decodeInvoices reads one invoice object or an array of them. Line items under
// an inline key are kept raw for the adapter to parse; item rows are decoded.
func decodeInvoices(data []byte) ([]domain.RawInvoice, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var objects []map[string]json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &objects); err != nil {
			return nil, err
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	invoices := make([]domain.RawInvoice, 0, len(objects))
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		invoices = append(invoices, invoiceFromObject(obj))
	}
	return invoices, nil
}

func invoiceFromObject(obj map[string]json.RawMessage) domain.RawInvoice {
	inv := domain.RawInvoice{Header: make(domain.RawRow, len(obj))}
	for key, raw := range obj {
		switch {
		case contains(inlineItemKeys, key):
			if inv.InlineItems == nil {
				inv.InlineItems = []byte(raw)
			}
		case contains(itemRowKeys, key):
			var rows []map[string]any
			if err := decodeNumbers(raw, &rows); err == nil {
				for _, r := range rows {
					if r != nil {
						inv.ItemRows = append(inv.ItemRows, domain.RawRow(r))
					}
				}
			}
		default:
			var v any
			if err := decodeNumbers(raw, &v); err == nil && v != nil {
				inv.Header[key] = v
			}
		}
	}
	return inv
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// DirInvoiceStore implements the InvoiceStore interface over a directory of
// JSON invoice documents. Period filtering is left to the adapter.
type DirInvoiceStore struct {
	fsys fs.FS
}

// NewDirInvoiceStore creates a store reading every *.json file under dir.
func NewDirInvoiceStore(dir string) *DirInvoiceStore {
	return &DirInvoiceStore{fsys: os.DirFS(dir)}
}

// NewFSInvoiceStore creates a store over an arbitrary file system.
func NewFSInvoiceStore(fsys fs.FS) *DirInvoiceStore {
	return &DirInvoiceStore{fsys: fsys}
}

// ListInvoices decodes every JSON document in name order.
func (s *DirInvoiceStore) ListInvoices(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawInvoice, error) {
	var names []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".json") {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice files: %w", err)
	}
	sort.Strings(names)

	var invoices []domain.RawInvoice
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(s.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read invoice file %s: %w", name, err)
		}
		invoices = append(invoices, decodeDocument(name, data)...)
	}
	return invoices, nil
}
