package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"lookbook/internal/domain"
	"lookbook/internal/providers/shopping"
)

type recommendRequest struct {
	PersonalInfo     *domain.PersonalInfo `json:"personalInfo"`
	EventDescription string               `json:"eventDescription"`
}

type recommendResponse struct {
	Recommendations []map[string][]domain.Product `json:"recommendations"`
}

// RecommendProducts turns wizard attributes into search terms and resolves
// each term into shopping listings. When every term comes back empty the
// placeholder catalog keeps the flow demonstrable.
func (a *App) RecommendProducts(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.PersonalInfo == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "personalInfo is required")
		return
	}
	if strings.TrimSpace(req.EventDescription) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "eventDescription is required")
		return
	}
	if req.PersonalInfo.Age <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "personalInfo.age is required")
		return
	}
	if strings.TrimSpace(req.PersonalInfo.Gender) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "personalInfo.gender is required")
		return
	}

	terms, err := a.Stylist.SearchTerms(r.Context(), req.PersonalInfo.Age, req.PersonalInfo.Gender, req.EventDescription)
	if err != nil {
		a.Log.Error().Err(err).Msg("search term generation failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	results, err := a.Shops.SearchAll(r.Context(), terms)
	if err != nil {
		a.Log.Error().Err(err).Msg("product search failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if len(results) == 0 {
		a.Log.Warn().Strs("terms", terms).Msg("no shopping results, serving placeholder catalog")
		results = placeholderResults(terms)
	}

	byTerm := make(map[string][]domain.Product, len(results))
	for _, res := range results {
		byTerm[res.Term] = res.Products
	}
	a.success(w, http.StatusOK, recommendResponse{
		Recommendations: []map[string][]domain.Product{byTerm},
	})
}

func placeholderResults(terms []string) []shopping.TermResults {
	products := shopping.PlaceholderProducts(terms)
	results := make([]shopping.TermResults, 0, len(terms))
	i := 0
	for _, term := range terms {
		if term == "" || i >= len(products) {
			continue
		}
		results = append(results, shopping.TermResults{Term: term, Products: []domain.Product{products[i]}})
		i++
	}
	return results
}
