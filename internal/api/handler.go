package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"pharmatrack/m/internal/config"
	"pharmatrack/m/internal/pharmacy"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc       *pharmacy.Service
	logger    *slog.Logger
	secret    string
	adminUser string
	adminHash []byte
}

// New constructs a Handler. The shared admin password is hashed once here
// so no plaintext credential is held after startup.
func New(svc *pharmacy.Service, logger *slog.Logger, cfg *config.Config) (*Handler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Handler{
		svc:       svc,
		logger:    logger,
		secret:    cfg.AuthSecret,
		adminUser: cfg.AdminUser,
		adminHash: hash,
	}, nil
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.listMedicines)
			r.Post("/", h.createMedicine)
			r.Put("/{id}", h.updateMedicine)
			r.Delete("/{id}", h.deleteMedicine)
		})

		pr.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Put("/{id}", h.updateCustomer)
			r.Delete("/{id}", h.deleteCustomer)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Post("/", h.createSale)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.summary)
			r.Get("/sales", h.salesReport)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username != h.adminUser ||
		bcrypt.CompareHashAndPassword(h.adminHash, []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	claims := jwt.RegisteredClaims{
		Subject:   req.Username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Medicine handlers

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.svc.Medicines(r.Context())
	if err != nil {
		h.respondServiceError(w, "list medicines", err)
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var in pharmacy.MedicineInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	med, err := h.svc.AddMedicine(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, "add medicine", err)
		return
	}
	respondJSON(w, http.StatusCreated, med)
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in pharmacy.MedicineInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.UpdateMedicine(r.Context(), id, in); err != nil {
		h.respondServiceError(w, "update medicine", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteMedicine(r.Context(), id); err != nil {
		h.respondServiceError(w, "delete medicine", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Customer handlers

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers(r.Context())
	if err != nil {
		h.respondServiceError(w, "list customers", err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in pharmacy.CustomerInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cust, err := h.svc.AddCustomer(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, "add customer", err)
		return
	}
	respondJSON(w, http.StatusCreated, cust)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in pharmacy.CustomerInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.UpdateCustomer(r.Context(), id, in); err != nil {
		h.respondServiceError(w, "update customer", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), id); err != nil {
		h.respondServiceError(w, "delete customer", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sales handlers

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.Sales(r.Context())
	if err != nil {
		h.respondServiceError(w, "list sales", err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var in pharmacy.SaleInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.RecordSale(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, "record sale", err)
		return
	}
	switch result.Outcome {
	case pharmacy.OutcomeSuccess:
		respondJSON(w, http.StatusCreated, result)
	case pharmacy.OutcomeMedicineNotFound, pharmacy.OutcomeCustomerNotFound:
		respondJSON(w, http.StatusNotFound, result)
	case pharmacy.OutcomeInsufficientStock:
		respondJSON(w, http.StatusConflict, result)
	default:
		respondError(w, http.StatusInternalServerError, "unknown sale outcome")
	}
}

// Reports

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summarize(r.Context())
	if err != nil {
		h.respondServiceError(w, "summarize", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start_date"))
	end := strings.TrimSpace(r.URL.Query().Get("end_date"))
	if start == "" || end == "" {
		respondError(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}
	sales, err := h.svc.Report(r.Context(), start, end)
	if err != nil {
		h.respondServiceError(w, "sales report", err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

// Helpers

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, pharmacy.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pharmacy.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
