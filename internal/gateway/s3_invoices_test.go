package gateway

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects  map[string]string
	pageSize int
	listErr  error
	listed   int
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listed++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := start + f.pageSize
	out := &s3.ListObjectsV2Output{}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3InvoiceStore_ListInvoices(t *testing.T) {
	fake := &fakeS3{
		pageSize: 2,
		objects: map[string]string{
			"invoices/a.json":    `{"number": "NF-A"}`,
			"invoices/b.json":    `{"number": "NF-B"}`,
			"invoices/c.json":    `[{"number": "NF-C1"}, {"number": "NF-C2"}]`,
			"invoices/readme":    `skip`,
			"other/outside.json": `{"number": "NF-X"}`,
		},
	}
	store, err := NewS3InvoiceStore(fake, "herd", "invoices/")
	require.NoError(t, err)

	got, err := store.ListInvoices(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	var numbers []string
	for _, inv := range got {
		numbers = append(numbers, inv.Header["number"].(string))
	}
	assert.Equal(t, []string{"NF-A", "NF-B", "NF-C1", "NF-C2"}, numbers)
	assert.Equal(t, 2, fake.listed)
}

func TestS3InvoiceStore_UndecodableObject(t *testing.T) {
	fake := &fakeS3{
		pageSize: 10,
		objects: map[string]string{
			"a.json": `{"number": "NF-A"}`,
			"b.json": `not json`,
		},
	}
	store, err := NewS3InvoiceStore(fake, "herd", "")
	require.NoError(t, err)

	got, err := store.ListInvoices(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NF-A", got[0].Header["number"])
	assert.Equal(t, "a.json", got[0].Origin)
	assert.True(t, got[1].Undecodable)
	assert.Equal(t, "b.json", got[1].Origin)
}

func TestS3InvoiceStore_Errors(t *testing.T) {
	_, err := NewS3InvoiceStore(&fakeS3{}, "", "")
	assert.Error(t, err)

	store, err := NewS3InvoiceStore(&fakeS3{listErr: errors.New("access denied"), pageSize: 1}, "herd", "")
	require.NoError(t, err)
	_, err = store.ListInvoices(context.Background(), time.Time{}, time.Time{})
	assert.ErrorContains(t, err, "access denied")
}
