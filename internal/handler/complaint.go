package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-buddy/internal/middleware"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// ComplaintHandler serves the student and warden complaint endpoints.  The
// acting user always comes from the authenticated identity; ownership and
// role rules are enforced again by the service.
type ComplaintHandler struct {
	Complaints *service.ComplaintService
	Images     ImageStore
}

func NewComplaintHandler(complaints *service.ComplaintService, images ImageStore) *ComplaintHandler {
	return &ComplaintHandler{Complaints: complaints, Images: images}
}

type createComplaintReq struct {
	Category    string `json:"category" form:"category"`
	Description string `json:"description" form:"description"`
	ImageURL    string `json:"imageUrl" form:"imageUrl"`
}

type updateStatusReq struct {
	Status          string  `json:"status"`
	AssignedStaff   *string `json:"assignedStaff"`
	ResolutionNotes *string `json:"resolutionNotes"`
}

// Create files a complaint for the calling student.  Accepts JSON or a
// multipart form with an optional "image" file.
func (h *ComplaintHandler) Create(c echo.Context) error {
	var req createComplaintReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	if isMultipart(c) {
		url, err := saveUpload(c, h.Images)
		if err != nil {
			return err
		}
		if url != "" {
			req.ImageURL = url
		}
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	cpl, err := h.Complaints.Create(ctx, middleware.CurrentIdentity(c), service.NewComplaint{
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "complaint submitted", cpl)
}

// ListMine returns the caller's complaints, newest first.
func (h *ComplaintHandler) ListMine(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Complaints.ListMine(ctx, middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", list)
}

// Get returns one complaint; students only see their own.
func (h *ComplaintHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	cpl, err := h.Complaints.Get(ctx, middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", cpl)
}

// ListAll returns every complaint with its owner.
func (h *ComplaintHandler) ListAll(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Complaints.ListAll(ctx, middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", list)
}

// UpdateStatus moves a complaint through its lifecycle.
func (h *ComplaintHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return bindErr()
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	cpl, err := h.Complaints.UpdateStatus(ctx, middleware.CurrentIdentity(c), c.Param("id"), service.StatusUpdate{
		Status:          req.Status,
		AssignedStaff:   req.AssignedStaff,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "complaint updated", cpl)
}
