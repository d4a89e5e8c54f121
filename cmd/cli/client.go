package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: 60 * time.Second}}
}

type session struct {
	OwnerID    string `json:"owner_id"`
	Email      string `json:"email"`
	Token      string `json:"token"`
	BusinessID string `json:"business_id"`
}

type vendor struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	InvitedAt   time.Time `json:"invited_at"`
}

type document struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"document_type"`
	Label        string    `json:"label"`
	FileName     string    `json:"file_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type slot struct {
	DocumentType string    `json:"document_type"`
	Label        string    `json:"label"`
	Uploaded     bool      `json:"uploaded"`
	Document     *document `json:"document"`
}

type completeness struct {
	IsComplete bool     `json:"is_complete"`
	Missing    []string `json:"missing"`
}

type onboardingState struct {
	Vendor struct {
		CompanyName string `json:"company_name"`
		Status      string `json:"status"`
		StatusLabel string `json:"status_label"`
	} `json:"vendor"`
	Documents    []slot       `json:"documents"`
	Completeness completeness `json:"completeness"`
	CanSubmit    bool         `json:"can_submit"`
}

type inviteResponse struct {
	Message    string `json:"message"`
	Vendor     vendor `json:"vendor"`
	InviteLink string `json:"inviteLink"`
}

type vendorDetail struct {
	Vendor       vendor       `json:"vendor"`
	InviteLink   string       `json:"invite_link"`
	Documents    []slot       `json:"documents"`
	Completeness completeness `json:"completeness"`
}

// apiError carries the server's {"error": ...} message
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (c *client) do(method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) doJSON(method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(method, path, body, contentType, out)
}

func (c *client) register(email, password, business string) (*session, error) {
	var s session
	err := c.doJSON(http.MethodPost, "/auth/register", map[string]string{
		"email": email, "password": password, "business_name": business,
	}, &s)
	return &s, err
}

func (c *client) login(email, password string) (*session, error) {
	var s session
	err := c.doJSON(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &s)
	return &s, err
}

func (c *client) invite(company, email string) (*inviteResponse, error) {
	var r inviteResponse
	err := c.doJSON(http.MethodPost, "/vendors/invite", map[string]string{"company_name": company, "email": email}, &r)
	return &r, err
}

func (c *client) listVendors() ([]vendor, error) {
	var r struct {
		Vendors []vendor `json:"vendors"`
	}
	err := c.doJSON(http.MethodGet, "/vendors", nil, &r)
	return r.Vendors, err
}

func (c *client) vendorDetail(id string) (*vendorDetail, error) {
	var d vendorDetail
	err := c.doJSON(http.MethodGet, "/vendors/"+id, nil, &d)
	return &d, err
}

func (c *client) approve(id string) (*vendor, error) {
	var r struct {
		Vendor vendor `json:"vendor"`
	}
	err := c.doJSON(http.MethodPost, "/vendors/"+id+"/approve", nil, &r)
	return &r.Vendor, err
}

func (c *client) onboarding(token string) (*onboardingState, error) {
	var s onboardingState
	err := c.doJSON(http.MethodGet, "/onboard/"+token, nil, &s)
	return &s, err
}

func (c *client) submit(token string) (*onboardingState, error) {
	var s onboardingState
	err := c.doJSON(http.MethodPost, "/onboard/"+token+"/submit", nil, &s)
	return &s, err
}

func (c *client) uploadDocument(token, docType, path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var r struct {
		Document document `json:"document"`
	}
	if err := c.do(http.MethodPost, "/onboard/"+token+"/documents/"+docType, &buf, mw.FormDataContentType(), &r); err != nil {
		return nil, err
	}
	return &r.Document, nil
}
