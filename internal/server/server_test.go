package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbshop/MIM-egistration-2027/internal/entity"
	"github.com/mbshop/MIM-egistration-2027/internal/extract"
)

type stubExtractor struct {
	rec     extract.FieldRecord
	gotPath string
}

func (s *stubExtractor) Extract(_ context.Context, imagePath string) extract.FieldRecord {
	s.gotPath = imagePath
	return s.rec
}

type stubRepo struct {
	participants []*entity.Participant
	insertErr    error
	listErr      error
}

func (s *stubRepo) Insert(_ context.Context, p *entity.Participant) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.participants = append(s.participants, p)
	return nil
}

func (s *stubRepo) List(context.Context, string) ([]*entity.Participant, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.participants, nil
}

type stubExporter struct {
	data []byte
	err  error
}

func (s *stubExporter) ExportParticipantsXLSX(context.Context, string) ([]byte, error) {
	return s.data, s.err
}

func newTestServer(extractor Extractor, repo *stubRepo, exporter Exporter) *Server {
	return New(extractor, repo, exporter, nil, nil)
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleExtractDocument(t *testing.T) {
	rec := extract.FieldRecord{Surname: "ALAOUI", GivenName: "YASMINE", Sex: "F"}

	t.Run("multipart file upload", func(t *testing.T) {
		extractor := &stubExtractor{rec: rec}
		srv := newTestServer(extractor, &stubRepo{}, &stubExporter{})

		body, contentType := multipartUpload(t, "document_image", "card.jpg", []byte("fake image bytes"))
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotEmpty(t, extractor.gotPath)

		var got extract.FieldRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Equal(t, rec, got)
	})

	t.Run("camera image data url", func(t *testing.T) {
		extractor := &stubExtractor{rec: rec}
		srv := newTestServer(extractor, &stubRepo{}, &stubExporter{})

		encoded := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("camera_image", "data:image/png;base64,"+encoded))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotEmpty(t, extractor.gotPath)
	})

	t.Run("camera image in a url encoded form", func(t *testing.T) {
		extractor := &stubExtractor{rec: rec}
		srv := newTestServer(extractor, &stubRepo{}, &stubExporter{})

		encoded := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
		form := url.Values{"camera_image": {"data:image/png;base64," + encoded}}

		req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotEmpty(t, extractor.gotPath)
	})

	t.Run("missing image is a bad request", func(t *testing.T) {
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, &stubExporter{})

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid base64 is a bad request", func(t *testing.T) {
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, &stubExporter{})

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("camera_image", "data:image/png;base64,!!not-base64!!"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleCreateParticipant(t *testing.T) {
	valid := `{
		"surname": "ALAOUI",
		"given_name": "YASMINE",
		"birth_date": "1995-03-12",
		"sex": "F",
		"country": "Morocco",
		"city": "Rabat",
		"document_number": "AB123456"
	}`

	t.Run("valid payload creates and returns the participant", func(t *testing.T) {
		repo := &stubRepo{}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(valid))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		require.Len(t, repo.participants, 1)

		var got entity.Participant
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Equal(t, "ALAOUI", got.Surname)
	})

	t.Run("missing required fields are rejected", func(t *testing.T) {
		repo := &stubRepo{}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(`{"surname":"ALAOUI"}`))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		require.Empty(t, repo.participants)
	})

	t.Run("document number is optional", func(t *testing.T) {
		repo := &stubRepo{}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		body := strings.Replace(valid, `"AB123456"`, `""`, 1)
		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(body))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		require.Len(t, repo.participants, 1)
		require.Empty(t, repo.participants[0].DocumentNumber)
	})

	t.Run("missing city is rejected", func(t *testing.T) {
		repo := &stubRepo{}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		body := strings.Replace(valid, `"Rabat"`, `""`, 1)
		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(body))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		require.Empty(t, repo.participants)
	})

	t.Run("malformed birth date is rejected", func(t *testing.T) {
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, &stubExporter{})

		body := strings.Replace(valid, "1995-03-12", "12/03/1995", 1)
		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(body))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("invalid sex code is rejected", func(t *testing.T) {
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, &stubExporter{})

		body := strings.Replace(valid, `"F"`, `"female"`, 1)
		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(body))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("invalid json body is a bad request", func(t *testing.T) {
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, &stubExporter{})

		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader("{not json"))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("repository failure is an internal error", func(t *testing.T) {
		repo := &stubRepo{insertErr: errors.New("db down")}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader(valid))
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandleListParticipants(t *testing.T) {
	t.Run("returns participants with count", func(t *testing.T) {
		repo := &stubRepo{participants: []*entity.Participant{
			{Surname: "ALAOUI"}, {Surname: "BENNANI"},
		}}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		req := httptest.NewRequest(http.MethodGet, "/api/participants?q=a", nil)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got struct {
			Participants []*entity.Participant `json:"participants"`
			Count        int                   `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Equal(t, 2, got.Count)
		require.Len(t, got.Participants, 2)
	})

	t.Run("repository failure is an internal error", func(t *testing.T) {
		repo := &stubRepo{listErr: errors.New("db down")}
		srv := newTestServer(&stubExtractor{}, repo, &stubExporter{})

		req := httptest.NewRequest(http.MethodGet, "/api/participants", nil)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandleExport(t *testing.T) {
	t.Run("serves workbook as attachment", func(t *testing.T) {
		exporter := &stubExporter{data: []byte("xlsx bytes")}
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, exporter)

		req := httptest.NewRequest(http.MethodGet, "/api/participants/export", nil)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
		require.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
		require.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
		require.Equal(t, "xlsx bytes", rr.Body.String())
	})

	t.Run("exporter failure is an internal error", func(t *testing.T) {
		exporter := &stubExporter{err: errors.New("no space left")}
		srv := newTestServer(&stubExtractor{}, &stubRepo{}, exporter)

		req := httptest.NewRequest(http.MethodGet, "/api/participants/export", nil)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&stubExtractor{}, &stubRepo{}, &stubExporter{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"ok":true}`, rr.Body.String())
}
