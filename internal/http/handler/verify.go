package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"esign/internal/reconcile"
	"esign/internal/service"
)

// outcomeStatus maps a verification outcome to its HTTP status.
func outcomeStatus(o reconcile.Outcome) int {
	switch o {
	case reconcile.Confirmed:
		return fiber.StatusOK
	case reconcile.NotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusUnprocessableEntity
	}
}

func parseOptionalID(s string) (*int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

func writeVerification(c *fiber.Ctx, svc service.SignatureService, req service.VerifyRequest) error {
	res, err := svc.Verify(c.UserContext(), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(outcomeStatus(res.Outcome)).JSON(res)
}

// VerifyDocument checks a resubmitted document, a record id or a proof token.
//
// @Summary  Verify a document
// @Tags     verifications
// @Accept   multipart/form-data
// @Produce  json
// @Param    file  formData file   false "document to recompute"
// @Param    id    formData int    false "claimed record id"
// @Param    token formData string false "proof token"
// @Success  200 {object} reconcile.Result "CONFIRMED"
// @Failure  404 {object} reconcile.Result "NOT_FOUND"
// @Failure  422 {object} reconcile.Result "REJECTED"
// @Failure  400 {object} errorPayload
// @Router   /verifications [post]
func VerifyDocument(svc service.SignatureService, maxUploadBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseOptionalID(c.FormValue("id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req := service.VerifyRequest{ID: id, Token: c.FormValue("token")}

		if fh, err := c.FormFile("file"); err == nil {
			content, err := readUpload(fh, maxUploadBytes)
			if errors.Is(err, errFileTooLarge) {
				return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file too large")
			}
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			req.Content = content
			req.Filename = fh.Filename
		}

		return writeVerification(c, svc, req)
	}
}

// VerifyLanding is the target of scanned QR codes: /verify?doc_id=<id> or /verify?token=<token>.
//
// @Summary  Verify by link
// @Tags     verifications
// @Produce  json
// @Param    doc_id query int    false "record id"
// @Param    token  query string false "proof token"
// @Success  200 {object} reconcile.Result
// @Failure  404 {object} reconcile.Result
// @Failure  422 {object} reconcile.Result
// @Failure  400 {object} errorPayload
// @Router   /verify [get]
func VerifyLanding(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseOptionalID(c.Query("doc_id"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		return writeVerification(c, svc, service.VerifyRequest{ID: id, Token: c.Query("token")})
	}
}
