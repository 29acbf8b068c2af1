package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the image limit for form boundaries and headers.
const multipartOverhead = 1 << 20

type Handler struct {
	listings   *usecase.ListingUsecase
	messages   *usecase.MessageUsecase
	reputation *usecase.ReputationUsecase
	media      *usecase.MediaUsecase
	metrics    *metrics.MetricsManager
	logger     *logger.Logger
}

func NewHandler(
	listings *usecase.ListingUsecase,
	messages *usecase.MessageUsecase,
	reputation *usecase.ReputationUsecase,
	media *usecase.MediaUsecase,
	m *metrics.MetricsManager,
	log *logger.Logger,
) *Handler {
	return &Handler{
		listings:   listings,
		messages:   messages,
		reputation: reputation,
		media:      media,
		metrics:    m,
		logger:     log.Named("HTTPHandler"),
	}
}

// identity is only called behind JWTAuth, which guarantees it is present.
func identity(r *http.Request) domain.Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: domain.Categories})
}

func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	filter, err := domain.ParseTypeFilter(r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	listings, err := h.listings.SearchListings(r.Context(), filter, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	details, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingDetailsResponse{
		Listing: toListingResponse(details.Listing),
		Owner:   toProfileResponse(details.Owner),
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.reputation.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(*profile))
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.listings.CreateListing(r.Context(), identity(r), req.draft(), req.Images)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsCreatedTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.listings.UpdateListing(r.Context(), chi.URLParam(r, "id"), identity(r).UserID, req.draft(), req.Images)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) CloseListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.CloseListing(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsClosedTotal.Inc()
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *Handler) ConfirmReunion(w http.ResponseWriter, r *http.Request) {
	result, err := h.messages.ConfirmReunion(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ReunionsConfirmedTotal.Inc()
		h.metrics.ListingsClosedTotal.Inc()
	}
	writeJSON(w, http.StatusOK, reunionResponse{
		Listing:      toListingResponse(result.Listing),
		CreditedUser: toProfileResponse(result.CreditedUser.Public()),
		MessageID:    result.MessageID,
	})
}

func (h *Handler) ListListingMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.ListListingMessages(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(msgs))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	msg, err := h.messages.SendMessage(r.Context(), identity(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.MessagesSentTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.Inbox(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(msgs))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.MarkRead(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

func (h *Handler) MyListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListOwnerListings(r.Context(), identity(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// UploadImage reads the multipart field "image" and stores it in the media store.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	limit := h.media.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, domain.Invalid("image", "exceeds the size limit"))
			return
		}
		h.fail(w, r, domain.Invalid("body", "must be a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.fail(w, r, domain.Invalid("image", "form field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.fail(w, r, domain.Invalid("image", "could not be read"))
		return
	}

	url, err := h.media.UploadImage(r.Context(), identity(r).UserID, header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ImagesUploadedTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
