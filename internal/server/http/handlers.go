package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/query"
	"github.com/helixir/literature-resolution-service/internal/resolver"
)

// Validation constants.
const (
	maxQueryLength     = 2000
	maxAuthorLength    = 500
	maxDOILength       = 512
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// resolveRequest is the JSON request body for POST /resolve.
type resolveRequest struct {
	Query  string `json:"query" validate:"required_without=DOI,max=2000"`
	Author string `json:"author,omitempty" validate:"max=500"`
	DOI    string `json:"doi,omitempty" validate:"required_without=Query,max=512"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// resolve handles POST /resolve.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req resolveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	req.Author = strings.TrimSpace(req.Author)
	req.DOI = strings.TrimSpace(req.DOI)

	if err := s.validateResolveRequest(req); err != nil {
		writeValidationError(w, err)
		return
	}

	s.writeRecords(w, r, resolver.Request{Query: req.Query, Author: req.Author, DOI: req.DOI})
}

// resolveDOI handles GET /resolve/doi/*. DOIs contain slashes, so the whole
// remaining path is the DOI.
func (s *Server) resolveDOI(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	doi, err := url.PathUnescape(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid DOI encoding")
		return
	}
	doi = strings.TrimSpace(doi)

	if err := validateDOI(doi); err != nil {
		writeValidationError(w, err)
		return
	}

	s.writeRecords(w, r, resolver.Request{DOI: doi})
}

func (s *Server) writeRecords(w http.ResponseWriter, r *http.Request, req resolver.Request) {
	records := s.resolver.Resolve(r.Context(), req)
	writeJSON(w, http.StatusOK, resolveResponse{
		Records: records,
		Count:   len(records),
		Stub:    len(records) == 1 && records[0].IsStub(),
	})
}

// listMirrors handles GET /mirrors.
func (s *Server) listMirrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mirrorsResponse{
		DOIMirrors:    s.catalog.DOIMirrors(),
		SearchMirrors: s.catalog.SearchMirrors(),
		Relays:        s.catalog.Relays(),
	})
}

// mirrorHealth handles GET /mirrors/health?registry=doi|search.
// Without a registry parameter both registries are probed.
func (s *Server) mirrorHealth(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil {
		writeError(w, http.StatusServiceUnavailable, "mirror probing is disabled")
		return
	}

	var endpoints []domain.MirrorEndpoint
	switch registry := r.URL.Query().Get("registry"); registry {
	case "":
		endpoints = append(s.catalog.DOIMirrors(), s.catalog.SearchMirrors()...)
	case string(domain.RegistryDOI), string(domain.RegistrySearch):
		endpoints = s.catalog.MirrorsFor(domain.RegistryKind(registry))
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown registry %q", registry))
		return
	}

	results, err := s.prober.Probe(r.Context(), endpoints)
	if err != nil {
		s.logger.Warn().Err(err).Msg("mirror probe interrupted")
		writeError(w, http.StatusServiceUnavailable, "mirror probe interrupted")
		return
	}

	resp := healthResponse{Results: results, Total: len(results)}
	for _, res := range results {
		if res.Up {
			resp.Up++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// validateResolveRequest checks a trimmed request body. Failures are
// *domain.ValidationError values.
func (s *Server) validateResolveRequest(req resolveRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fromValidator(err)
	}
	if req.DOI != "" {
		return validateDOI(req.DOI)
	}
	return nil
}

func validateDOI(doi string) error {
	switch {
	case doi == "":
		return domain.NewValidationError("doi", "doi is required")
	case len(doi) > maxDOILength:
		return domain.NewValidationError("doi", fmt.Sprintf("doi must be at most %d characters", maxDOILength))
	case !query.IsDOI(doi):
		return domain.NewValidationError("doi", "doi is not a valid DOI")
	}
	return nil
}

// fromValidator turns the first validator failure into a ValidationError
// whose message is fit for clients.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("body", "invalid request")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required_without":
		return domain.NewValidationError(fe.Field(), "query or doi is required")
	case "max":
		return domain.NewValidationError(fe.Field(), fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return domain.NewValidationError(fe.Field(), fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request")
}
