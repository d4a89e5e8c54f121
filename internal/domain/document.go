package domain

import (
	"context"
	"io"
	"time"
)

// DocumentType identifies one of the required compliance documents
type DocumentType string

const (
	DocumentW9      DocumentType = "w9"
	DocumentCOI     DocumentType = "coi"
	DocumentBanking DocumentType = "banking"
	DocumentLicense DocumentType = "license"
)

// RequiredDocumentTypes is the fixed requirement list, in render order.
var RequiredDocumentTypes = []DocumentType{DocumentW9, DocumentCOI, DocumentBanking, DocumentLicense}

var documentLabels = map[DocumentType]string{
	DocumentW9:      "W-9 Tax Form",
	DocumentCOI:     "Certificate of Insurance",
	DocumentBanking: "Banking Details",
	DocumentLicense: "Business License",
}

// ParseDocumentType validates a raw document type
func ParseDocumentType(raw string) (DocumentType, error) {
	t := DocumentType(raw)
	if _, ok := documentLabels[t]; !ok {
		return "", NewError(KindValidation, "unknown document type: "+raw, nil)
	}
	return t, nil
}

// Label returns the human readable document name
func (t DocumentType) Label() string {
	if l, ok := documentLabels[t]; ok {
		return l
	}
	return string(t)
}

// Document is one uploaded artifact for a (vendor, document type) pair
type Document struct {
	ID           string
	VendorID     string
	DocumentType DocumentType
	FileRef      string // blob storage key
	FileName     string // original name, display only
	UploadedAt   time.Time
}

// Completeness summarizes which required documents a vendor is missing
type Completeness struct {
	IsComplete bool
	Missing    []DocumentType
}

// ComputeCompleteness checks the uploaded documents against RequiredDocumentTypes.
// Missing types are reported in requirement order.
func ComputeCompleteness(docs []*Document) Completeness {
	present := make(map[DocumentType]bool, len(docs))
	for _, d := range docs {
		present[d.DocumentType] = true
	}

	missing := []DocumentType{}
	for _, t := range RequiredDocumentTypes {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return Completeness{IsComplete: len(missing) == 0, Missing: missing}
}

// DocumentRepository defines data access for document metadata
type DocumentRepository interface {
	// Upsert inserts or replaces the row for (VendorID, DocumentType) and fills ID.
	Upsert(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*Document, error)
	ListFileRefs(ctx context.Context) ([]string, error)
}

// BlobInfo describes a stored blob
type BlobInfo struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// BlobStore stores document bytes under deterministic keys
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]BlobInfo, error)
}

// StorageKey builds the deterministic blob key {vendorID}/{documentType}.{ext}.
// Re-uploads of the same type with the same extension land on the same key.
func StorageKey(vendorID string, t DocumentType, ext string) string {
	return vendorID + "/" + string(t) + "." + ext
}
