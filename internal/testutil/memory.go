// Package testutil provides in-memory implementations of the repositories and
// blob store, safe for concurrent use, for service, handler and worker tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/notify"
	"github.com/google/uuid"
)

// errInvalidUUID is what Postgres reports for a malformed value in a UUID column
var errInvalidUUID = fmt.Errorf("pq: invalid input syntax for type uuid")

// BusinessRepo mirrors the insert-if-absent semantics of the Postgres repository
type BusinessRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Business
	Inserts int // rows actually inserted
	Err     error
}

func NewBusinessRepo() *BusinessRepo {
	return &BusinessRepo{byEmail: map[string]*domain.Business{}}
}

func (r *BusinessRepo) FindOrCreate(_ context.Context, b *domain.Business) (*domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to create business", r.Err)
	}
	if existing, ok := r.byEmail[b.OwnerEmail]; ok {
		return copyBusiness(existing), nil
	}
	stored := copyBusiness(b)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.byEmail[b.OwnerEmail] = stored
	r.Inserts++
	return copyBusiness(stored), nil
}

func (r *BusinessRepo) GetByID(_ context.Context, id string) (*domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.byEmail {
		if b.ID == id {
			return copyBusiness(b), nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "business not found", nil)
}

func (r *BusinessRepo) GetByOwnerEmail(_ context.Context, email string) (*domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.byEmail[email]; ok {
		return copyBusiness(b), nil
	}
	return nil, domain.NewError(domain.KindNotFound, "business not found", nil)
}

// Count returns the number of stored businesses
func (r *BusinessRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail)
}

func copyBusiness(b *domain.Business) *domain.Business {
	c := *b
	return &c
}

// VendorRepo stores vendors with guarded transitions
type VendorRepo struct {
	mu        sync.Mutex
	vendors   map[string]*domain.Vendor
	CreateErr error
	MarkErr   error
}

func NewVendorRepo() *VendorRepo {
	return &VendorRepo{vendors: map[string]*domain.Vendor{}}
}

func (r *VendorRepo) Create(_ context.Context, v *domain.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return domain.NewError(domain.KindPersistence, "failed to create vendor", r.CreateErr)
	}
	for _, existing := range r.vendors {
		if existing.InviteToken == v.InviteToken {
			return domain.NewError(domain.KindPersistence, "failed to create vendor", fmt.Errorf("duplicate invite token"))
		}
	}
	r.vendors[v.ID] = copyVendor(v)
	return nil
}

func (r *VendorRepo) GetByID(_ context.Context, id string) (*domain.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to read vendor", errInvalidUUID)
	}
	if v, ok := r.vendors[id]; ok {
		return copyVendor(v), nil
	}
	return nil, domain.NewError(domain.KindNotFound, "vendor not found", nil)
}

func (r *VendorRepo) GetByInviteToken(_ context.Context, token string) (*domain.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vendors {
		if v.InviteToken == token {
			return copyVendor(v), nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "vendor not found", nil)
}

func (r *VendorRepo) ListByBusiness(_ context.Context, businessID string) ([]*domain.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Vendor{}
	for _, v := range r.vendors {
		if v.BusinessID == businessID {
			out = append(out, copyVendor(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedAt.After(out[j].InvitedAt) })
	return out, nil
}

func (r *VendorRepo) Transition(_ context.Context, id string, from []domain.VendorStatus, to domain.VendorStatus, at time.Time) (*domain.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vendors[id]
	if !ok {
		return nil, domain.NewError(domain.KindPrecondition, "vendor is not in a status that allows "+string(to), nil)
	}
	allowed := false
	for _, s := range from {
		if v.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, domain.NewError(domain.KindPrecondition, "vendor is not in a status that allows "+string(to), nil)
	}
	v.Status = to
	stamp := at
	switch to {
	case domain.StatusComplete:
		v.CompletedAt = &stamp
	case domain.StatusApproved:
		v.ApprovedAt = &stamp
	}
	return copyVendor(v), nil
}

func (r *VendorRepo) MarkNotified(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.MarkErr != nil {
		return domain.NewError(domain.KindPersistence, "failed to mark vendor notified", r.MarkErr)
	}
	if v, ok := r.vendors[id]; ok && v.NotifiedAt == nil {
		stamp := at
		v.NotifiedAt = &stamp
	}
	return nil
}

func (r *VendorRepo) ListUnnotified(_ context.Context, invitedBefore time.Time, limit int) ([]*domain.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Vendor{}
	for _, v := range r.vendors {
		if v.NotifiedAt == nil && v.Status == domain.StatusInvited && v.InvitedAt.Before(invitedBefore) {
			out = append(out, copyVendor(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedAt.Before(out[j].InvitedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put overwrites a vendor row, for arranging test state
func (r *VendorRepo) Put(v *domain.Vendor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vendors[v.ID] = copyVendor(v)
}

func copyVendor(v *domain.Vendor) *domain.Vendor {
	c := *v
	if v.CompletedAt != nil {
		t := *v.CompletedAt
		c.CompletedAt = &t
	}
	if v.ApprovedAt != nil {
		t := *v.ApprovedAt
		c.ApprovedAt = &t
	}
	if v.NotifiedAt != nil {
		t := *v.NotifiedAt
		c.NotifiedAt = &t
	}
	return &c
}

// DocumentRepo upserts on (vendor_id, document_type)
type DocumentRepo struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document // keyed by vendorID/type
	UpsertErr error
	// AfterUpsert runs after a successful upsert, outside the lock, to
	// interleave other work between the metadata write and what follows it.
	AfterUpsert func(d *domain.Document)
}

func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{docs: map[string]*domain.Document{}}
}

func (r *DocumentRepo) Upsert(_ context.Context, d *domain.Document) error {
	r.mu.Lock()
	if r.UpsertErr != nil {
		r.mu.Unlock()
		return domain.NewError(domain.KindPersistence, "failed to record document", r.UpsertErr)
	}
	key := d.VendorID + "/" + string(d.DocumentType)
	if existing, ok := r.docs[key]; ok {
		d.ID = existing.ID
	}
	c := *d
	r.docs[key] = &c
	hook := r.AfterUpsert
	r.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to get document", errInvalidUUID)
	}
	for _, d := range r.docs {
		if d.ID == id {
			c := *d
			return &c, nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "document not found", nil)
}

func (r *DocumentRepo) ListByVendor(_ context.Context, vendorID string) ([]*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Document{}
	for _, d := range r.docs {
		if d.VendorID == vendorID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentType < out[j].DocumentType })
	return out, nil
}

func (r *DocumentRepo) ListFileRefs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d.FileRef)
	}
	sort.Strings(out)
	return out, nil
}

// Count returns the number of stored documents
func (r *DocumentRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// OwnerRepo stores owner accounts with a unique email
type OwnerRepo struct {
	mu     sync.Mutex
	owners map[string]*domain.Owner
}

func NewOwnerRepo() *OwnerRepo {
	return &OwnerRepo{owners: map[string]*domain.Owner{}}
}

func (r *OwnerRepo) Create(_ context.Context, o *domain.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[o.Email]; ok {
		return domain.NewError(domain.KindValidation, "email already registered", nil)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	c := *o
	r.owners[o.Email] = &c
	return nil
}

func (r *OwnerRepo) GetByEmail(_ context.Context, email string) (*domain.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.owners[email]; ok {
		c := *o
		return &c, nil
	}
	return nil, domain.NewError(domain.KindNotFound, "owner not found", nil)
}

// BlobStore keeps blobs in memory
type BlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	modified map[string]time.Time
	PutErr   error
	OpenErr  error
	Now      func() time.Time
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string][]byte{}, modified: map[string]time.Time{}, Now: time.Now}
}

func (s *BlobStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return domain.NewError(domain.KindStorage, "failed to store file", s.PutErr)
	}
	s.blobs[key] = append([]byte(nil), data...)
	s.modified[key] = s.Now()
	return nil
}

func (s *BlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return nil, domain.NewError(domain.KindStorage, "failed to open file", s.OpenErr)
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, domain.NewError(domain.KindStorage, "file not found in storage", nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	delete(s.modified, key)
	return nil
}

func (s *BlobStore) List(_ context.Context) ([]domain.BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BlobInfo, 0, len(s.blobs))
	for k, v := range s.blobs {
		out = append(out, domain.BlobInfo{Key: k, Size: int64(len(v)), ModifiedAt: s.modified[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Get returns a blob's bytes
func (s *BlobStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	return b, ok
}

// Keys lists stored keys with the given prefix
func (s *BlobStore) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Notifier records invitations and can be made to fail
type Notifier struct {
	mu   sync.Mutex
	sent []notify.InviteNotification
	Err  error
}

func (n *Notifier) NotifyInvite(_ context.Context, inv notify.InviteNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, inv)
	return nil
}

// Sent returns the recorded invitations
func (n *Notifier) Sent() []notify.InviteNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.InviteNotification(nil), n.sent...)
}
