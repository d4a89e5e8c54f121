package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/testutil"
	"github.com/aryan0dhankhar/vendoronboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc        *OnboardingService
	businesses *testutil.BusinessRepo
	vendors    *testutil.VendorRepo
	documents  *testutil.DocumentRepo
	blobs      *testutil.BlobStore
	notifier   *testutil.Notifier
	cfg        *config.Config
}

var owner = domain.Identity{OwnerID: "o1", Email: "owner@biz.test"}

func testConfig() *config.Config {
	return &config.Config{
		AppBaseURL:              "http://localhost:3000",
		Notifier:                "log",
		DefaultBusinessName:     "My Business",
		MaxUploadBytes:          1024,
		AllowedUploadExtensions: []string{"pdf", "png", "jpg", "jpeg"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		businesses: testutil.NewBusinessRepo(),
		vendors:    testutil.NewVendorRepo(),
		documents:  testutil.NewDocumentRepo(),
		blobs:      testutil.NewBlobStore(),
		notifier:   &testutil.Notifier{},
		cfg:        testConfig(),
	}
	f.svc = NewOnboardingService(f.businesses, f.vendors, f.documents, f.blobs, f.notifier, nil, nil, f.cfg)

	var mu sync.Mutex
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return f
}

func (f *fixture) invite(t *testing.T) *domain.Vendor {
	t.Helper()
	res, err := f.svc.Invite(context.Background(), owner, "Acme Supplies", "ap@acme.test")
	require.NoError(t, err)
	return res.Vendor
}

func (f *fixture) upload(t *testing.T, vendorID string, types ...domain.DocumentType) {
	t.Helper()
	for _, dt := range types {
		_, err := f.svc.UploadDocument(context.Background(), vendorID, string(dt), []byte("%PDF-1.4 "+dt), string(dt)+".pdf")
		require.NoError(t, err)
	}
}

func (f *fixture) status(t *testing.T, vendorID string) domain.VendorStatus {
	t.Helper()
	v, err := f.vendors.GetByID(context.Background(), vendorID)
	require.NoError(t, err)
	return v.Status
}

func TestOnboardingEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Invite(ctx, owner, "  Acme Supplies ", "ap@acme.test")
	require.NoError(t, err)
	v := res.Vendor
	assert.Equal(t, domain.StatusInvited, v.Status)
	assert.Equal(t, "Acme Supplies", v.CompanyName)
	assert.Len(t, v.InviteToken, 64)
	assert.Equal(t, "http://localhost:3000/onboard/"+v.InviteToken, res.InviteLink)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, res.InviteLink, sent[0].InviteLink)
	assert.Equal(t, "My Business", sent[0].BusinessName)

	resolved, err := f.svc.ResolveVendorByToken(ctx, v.InviteToken)
	require.NoError(t, err)
	assert.Equal(t, v.ID, resolved.ID)

	f.upload(t, v.ID, domain.DocumentW9)
	assert.Equal(t, domain.StatusInProgress, f.status(t, v.ID))

	f.upload(t, v.ID, domain.DocumentCOI, domain.DocumentBanking)
	assert.Equal(t, domain.StatusInProgress, f.status(t, v.ID))

	docs, err := f.svc.ListDocuments(ctx, v.ID)
	require.NoError(t, err)
	c := f.svc.ComputeCompleteness(docs)
	assert.False(t, c.IsComplete)
	assert.Equal(t, []domain.DocumentType{domain.DocumentLicense}, c.Missing)

	f.upload(t, v.ID, domain.DocumentLicense)
	submitted, err := f.svc.SubmitForReview(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, submitted.Status)
	require.NotNil(t, submitted.CompletedAt)

	approved, err := f.svc.ApproveVendor(ctx, owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	_, err = f.svc.ApproveVendor(ctx, owner, v.ID)
	assert.True(t, errors.Is(err, domain.ErrPrecondition), "second approve must fail, got %v", err)
}

// The in-memory repository serializes FindOrCreate, so this checks that the
// service never creates a business outside FindOrCreate (no read-then-write in
// the cache path). The Postgres conflict path is covered in the repository
// package by TestBusinessFindOrCreate_ConcurrentLoserGetsWinner.
func TestConcurrentFirstInvitesCreateOneBusiness(t *testing.T) {
	f := newFixture(t)
	const n = 25

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Invite(context.Background(), owner, fmt.Sprintf("Vendor %d", i), fmt.Sprintf("v%d@example.test", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.businesses.Count())
	assert.Equal(t, 1, f.businesses.Inserts)

	vendors, err := f.svc.ListVendors(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, vendors, n)
	for _, v := range vendors[1:] {
		assert.Equal(t, vendors[0].BusinessID, v.BusinessID)
	}
}

func TestInviteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Invite(ctx, domain.Identity{}, "Acme", "a@acme.test")
	assert.True(t, errors.Is(err, domain.ErrAuth))

	for _, c := range []struct{ company, email string }{
		{"", "a@acme.test"},
		{"Acme", ""},
		{"   ", "a@acme.test"},
		{"Acme", "not an email"},
	} {
		_, err := f.svc.Invite(ctx, owner, c.company, c.email)
		assert.True(t, errors.Is(err, domain.ErrValidation), "company %q email %q: got %v", c.company, c.email, err)
	}
	assert.Equal(t, 0, f.businesses.Count(), "invalid invites must not provision a business")
}

func TestInvitePersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.vendors.CreateErr = errors.New("connection reset")

	_, err := f.svc.Invite(context.Background(), owner, "Acme", "a@acme.test")
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Empty(t, f.notifier.Sent())
}

func TestInviteSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("smtp down")

	res, err := f.svc.Invite(context.Background(), owner, "Acme", "a@acme.test")
	require.NoError(t, err)
	assert.NotEmpty(t, res.InviteLink)
	assert.Equal(t, domain.StatusInvited, f.status(t, res.Vendor.ID))
}

func TestUndeliveredInviteIsRedelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.Err = errors.New("redis down")

	res, err := f.svc.Invite(ctx, owner, "Acme", "a@acme.test")
	require.NoError(t, err)
	assert.Empty(t, f.notifier.Sent())

	delivered, err := f.svc.RedeliverInvites(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, delivered, "still failing, stays pending")

	f.notifier.Err = nil
	delivered, err = f.svc.RedeliverInvites(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, delivered, "invites younger than the delay are left alone")

	delivered, err = f.svc.RedeliverInvites(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, res.InviteLink, sent[0].InviteLink)
	assert.Equal(t, "My Business", sent[0].BusinessName)
	stored, err := f.vendors.GetByID(ctx, res.Vendor.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.NotifiedAt)

	delivered, err = f.svc.RedeliverInvites(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestDeliveredInviteIsNotResent(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)

	stored, err := f.vendors.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.NotifiedAt)

	delivered, err := f.svc.RedeliverInvites(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestRedeliveryIsAtLeastOnce(t *testing.T) {
	f := newFixture(t)
	f.vendors.MarkErr = errors.New("connection reset")
	f.invite(t)
	require.Len(t, f.notifier.Sent(), 1)

	// The hand-off was not recorded, so the invite goes out again
	f.vendors.MarkErr = nil
	delivered, err := f.svc.RedeliverInvites(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Len(t, f.notifier.Sent(), 2)
}

func TestRedeliverySkipsVendorsThatStartedOnboarding(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("redis down")
	v := f.invite(t)
	f.upload(t, v.ID, domain.DocumentW9)

	f.notifier.Err = nil
	delivered, err := f.svc.RedeliverInvites(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Empty(t, f.notifier.Sent())
}

func TestInviteTokensAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v := f.invite(t)
		assert.False(t, seen[v.InviteToken])
		seen[v.InviteToken] = true
	}
}

func TestResolveVendorByTokenRejectsUnknownTokens(t *testing.T) {
	f := newFixture(t)
	f.invite(t)
	ctx := context.Background()

	for _, token := range []string{"", "abc", "zz" + string(make([]byte, 62)), "0000000000000000000000000000000000000000000000000000000000000000"} {
		_, err := f.svc.ResolveVendorByToken(ctx, token)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "token %q", token)
	}
}

func TestSubmitRequiresAllDocuments(t *testing.T) {
	all := domain.RequiredDocumentTypes
	for mask := 0; mask < 15; mask++ {
		var subset []domain.DocumentType
		for i, dt := range all {
			if mask&(1<<i) != 0 {
				subset = append(subset, dt)
			}
		}
		t.Run(fmt.Sprintf("%v", subset), func(t *testing.T) {
			f := newFixture(t)
			v := f.invite(t)
			f.upload(t, v.ID, subset...)
			before := f.status(t, v.ID)

			_, err := f.svc.SubmitForReview(context.Background(), v.ID)
			assert.True(t, errors.Is(err, domain.ErrPrecondition), "got %v", err)
			assert.Equal(t, before, f.status(t, v.ID))
		})
	}
}

func TestSubmitFromInvitedWithAllDocuments(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	// Documents present while the vendor still reads invited, e.g. rows written by an import
	for _, dt := range domain.RequiredDocumentTypes {
		require.NoError(t, f.documents.Upsert(context.Background(), &domain.Document{
			ID: string(dt), VendorID: v.ID, DocumentType: dt, FileRef: v.ID + "/" + string(dt) + ".pdf", FileName: "x.pdf",
		}))
	}

	got, err := f.svc.SubmitForReview(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, got.Status)
}

func TestSubmitTwiceFails(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	f.upload(t, v.ID, domain.RequiredDocumentTypes...)

	_, err := f.svc.SubmitForReview(context.Background(), v.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitForReview(context.Background(), v.ID)
	assert.True(t, errors.Is(err, domain.ErrPrecondition))
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		docType  string
		data     []byte
		fileName string
	}{
		{"unknown type", "passport", []byte("x"), "a.pdf"},
		{"empty data", "w9", nil, "a.pdf"},
		{"empty file name", "w9", []byte("x"), "  "},
		{"no extension", "w9", []byte("x"), "scan"},
		{"disallowed extension", "w9", []byte("x"), "payload.exe"},
		{"too large", "w9", make([]byte, 2048), "big.pdf"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.svc.UploadDocument(ctx, v.ID, c.docType, c.data, c.fileName)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.documents.Count())
	assert.Empty(t, f.blobs.Keys(""))
	assert.Equal(t, domain.StatusInvited, f.status(t, v.ID))
}

func TestUploadStorageFailureWritesNoMetadata(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	f.blobs.PutErr = errors.New("disk full")

	_, err := f.svc.UploadDocument(context.Background(), v.ID, "w9", []byte("x"), "w9.pdf")
	assert.True(t, errors.Is(err, domain.ErrStorage))
	assert.Equal(t, 0, f.documents.Count())
	assert.Equal(t, domain.StatusInvited, f.status(t, v.ID))
}

func TestUploadPersistenceFailureLeavesOrphanBlob(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	f.documents.UpsertErr = errors.New("connection reset")

	_, err := f.svc.UploadDocument(context.Background(), v.ID, "w9", []byte("x"), "w9.pdf")
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Equal(t, []string{v.ID + "/w9.pdf"}, f.blobs.Keys(v.ID))
	assert.Equal(t, domain.StatusInvited, f.status(t, v.ID))
}

func TestReuploadReplacesDocument(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	ctx := context.Background()

	first, err := f.svc.UploadDocument(ctx, v.ID, "w9", []byte("first"), "w9-draft.pdf")
	require.NoError(t, err)
	second, err := f.svc.UploadDocument(ctx, v.ID, "w9", []byte("second"), "w9-final.PDF")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same slot keeps its row")
	docs, err := f.svc.ListDocuments(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "w9-final.PDF", docs[0].FileName)
	data, _ := f.blobs.Get(v.ID + "/w9.pdf")
	assert.Equal(t, "second", string(data))

	third, err := f.svc.UploadDocument(ctx, v.ID, "w9", []byte("third"), "w9.png")
	require.NoError(t, err)
	assert.Equal(t, v.ID+"/w9.png", third.FileRef)
	assert.Equal(t, []string{v.ID + "/w9.pdf", v.ID + "/w9.png"}, f.blobs.Keys(v.ID),
		"the replaced blob stays until the reconciliation sweep collects it")
}

func TestInterleavedReuploadsKeepReferencedBlob(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	ctx := context.Background()

	_, err := f.svc.UploadDocument(ctx, v.ID, "w9", []byte("original"), "w9.pdf")
	require.NoError(t, err)

	// Upload A (png) records its row, then upload B (pdf) runs to completion
	// before A returns.
	interleaved := false
	f.documents.AfterUpsert = func(d *domain.Document) {
		if interleaved {
			return
		}
		interleaved = true
		_, err := f.svc.UploadDocument(ctx, v.ID, "w9", []byte("from B"), "w9.pdf")
		require.NoError(t, err)
	}
	_, err = f.svc.UploadDocument(ctx, v.ID, "w9", []byte("from A"), "w9.png")
	require.NoError(t, err)

	docs, err := f.svc.ListDocuments(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	data, ok := f.blobs.Get(docs[0].FileRef)
	require.True(t, ok, "row %s must reference a stored blob", docs[0].FileRef)
	assert.Equal(t, "from B", string(data))
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", "", "1 OR 1=1"} {
		_, err := f.svc.GetVendorDetail(ctx, owner, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "detail %q: %v", id, err)
		_, err = f.svc.ApproveVendor(ctx, owner, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "approve %q: %v", id, err)
		_, _, err = f.svc.OpenDocument(ctx, owner, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "download %q: %v", id, err)
	}

	_, err := f.svc.GetVendorDetail(ctx, owner, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, domain.StatusInvited, f.status(t, v.ID))
}

func TestLateReuploadPolicy(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	f.upload(t, v.ID, domain.RequiredDocumentTypes...)
	_, err := f.svc.SubmitForReview(context.Background(), v.ID)
	require.NoError(t, err)

	_, err = f.svc.UploadDocument(context.Background(), v.ID, "coi", []byte("renewed"), "coi.pdf")
	require.NoError(t, err, "late re-upload is accepted by default")
	assert.Equal(t, domain.StatusComplete, f.status(t, v.ID), "late re-upload has no status effect")

	f.cfg.RejectLateReupload = true
	_, err = f.svc.UploadDocument(context.Background(), v.ID, "coi", []byte("again"), "coi.pdf")
	assert.True(t, errors.Is(err, domain.ErrPrecondition))
}

func TestApproveRequiresComplete(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)

	_, err := f.svc.ApproveVendor(context.Background(), owner, v.ID)
	assert.True(t, errors.Is(err, domain.ErrPrecondition))

	f.upload(t, v.ID, domain.DocumentW9)
	_, err = f.svc.ApproveVendor(context.Background(), owner, v.ID)
	assert.True(t, errors.Is(err, domain.ErrPrecondition))
	assert.Equal(t, domain.StatusInProgress, f.status(t, v.ID))
}

func TestApproveEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	f.upload(t, v.ID, domain.RequiredDocumentTypes...)
	_, err := f.svc.SubmitForReview(context.Background(), v.ID)
	require.NoError(t, err)

	_, err = f.svc.ApproveVendor(context.Background(), domain.Identity{}, v.ID)
	assert.True(t, errors.Is(err, domain.ErrAuth))

	stranger := domain.Identity{OwnerID: "o2", Email: "other@biz.test"}
	_, err = f.svc.ApproveVendor(context.Background(), stranger, v.ID)
	assert.True(t, errors.Is(err, domain.ErrAuth))

	_, err = f.svc.Invite(context.Background(), stranger, "Other Vendor", "x@other.test")
	require.NoError(t, err)
	_, err = f.svc.ApproveVendor(context.Background(), stranger, v.ID)
	assert.True(t, errors.Is(err, domain.ErrAuth), "owner of another business cannot approve")

	assert.Equal(t, domain.StatusComplete, f.status(t, v.ID))

	_, err = f.svc.ApproveVendor(context.Background(), owner, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListVendorsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.ListVendors(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := f.invite(t)
	second := f.invite(t)
	vendors, err := f.svc.ListVendors(ctx, owner)
	require.NoError(t, err)
	require.Len(t, vendors, 2)
	assert.Equal(t, second.ID, vendors[0].ID)
	assert.Equal(t, first.ID, vendors[1].ID)

	_, err = f.svc.ListVendors(ctx, domain.Identity{})
	assert.True(t, errors.Is(err, domain.ErrAuth))
}

func TestGetVendorDetail(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	f.upload(t, v.ID, domain.DocumentBanking)

	d, err := f.svc.GetVendorDetail(context.Background(), owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, d.Vendor.ID)
	assert.Len(t, d.Documents, 1)
	assert.Equal(t, []domain.DocumentType{domain.DocumentW9, domain.DocumentCOI, domain.DocumentLicense}, d.Completeness.Missing)

	_, err = f.svc.GetVendorDetail(context.Background(), domain.Identity{Email: "x@y.test"}, v.ID)
	assert.True(t, errors.Is(err, domain.ErrAuth))
}

func TestOpenDocument(t *testing.T) {
	f := newFixture(t)
	v := f.invite(t)
	doc, err := f.svc.UploadDocument(context.Background(), v.ID, "license", []byte("license bytes"), "license.jpg")
	require.NoError(t, err)

	got, rc, err := f.svc.OpenDocument(context.Background(), owner, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "license bytes", string(body))
	assert.Equal(t, "license.jpg", got.FileName)

	_, _, err = f.svc.OpenDocument(context.Background(), domain.Identity{Email: "x@y.test"}, doc.ID)
	assert.True(t, errors.Is(err, domain.ErrAuth))

	f.blobs.OpenErr = errors.New("io error")
	_, _, err = f.svc.OpenDocument(context.Background(), owner, doc.ID)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}
