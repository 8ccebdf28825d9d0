package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"esign/internal/repository"
	"esign/internal/service"
)

var errFileTooLarge = errors.New("uploaded file too large")

// readUpload reads an uploaded file fully, refusing anything above maxBytes.
func readUpload(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, errFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, errFileTooLarge
	}
	return content, nil
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// SignDocument signs an uploaded document on behalf of a claimant.
//
// @Summary  Sign a document
// @Tags     signatures
// @Accept   multipart/form-data
// @Produce  json
// @Param    file     formData file   true "document (PDF or UTF-8 text)"
// @Param    claimant formData string true "name of the signer"
// @Success  201 {object} service.SignResult
// @Failure  400 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Failure  503 {object} errorPayload
// @Router   /signatures [post]
func SignDocument(svc service.SignatureService, maxUploadBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		content, err := readUpload(fh, maxUploadBytes)
		if errors.Is(err, errFileTooLarge) {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "file too large")
		}
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}

		claimant := c.FormValue("claimant")
		if claimant == "" {
			return writeError(c, fiber.StatusBadRequest, "CLAIMANT_REQUIRED", "claimant is required")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := svc.Sign(c.UserContext(), service.SignRequest{
			Content:     content,
			Claimant:    claimant,
			Filename:    fh.Filename,
			ContentType: ct,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListSignatures returns the signing history, newest first by default.
//
// @Summary  Signing history
// @Tags     signatures
// @Produce  json
// @Param    limit  query int    false "page size (max 100)" default(10)
// @Param    offset query int    false "records to skip"     default(0)
// @Param    order  query string false "desc or asc"         default(desc)
// @Success  200 {object} service.ListResult
// @Failure  400 {object} errorPayload
// @Router   /signatures [get]
func ListSignatures(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		order, ok := repository.ParseOrder(c.Query("order"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ORDER", "order must be asc or desc")
		}

		res, err := svc.List(c.UserContext(), limit, offset, order)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetSignature returns a single ledger record.
//
// @Summary  Get a signature record
// @Tags     signatures
// @Produce  json
// @Param    id path int true "record id"
// @Success  200 {object} model.SignatureRecord
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /signatures/{id} [get]
func GetSignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// GetProof returns the proof token of a record.
//
// @Summary  Get the proof token
// @Tags     signatures
// @Produce  json
// @Param    id path int true "record id"
// @Success  200 {object} service.ProofResult
// @Failure  404 {object} errorPayload
// @Router   /signatures/{id}/proof [get]
func GetProof(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Proof(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetProofQR renders the proof as a PNG QR code.
//
// @Summary  Proof QR code
// @Tags     signatures
// @Produce  png
// @Param    id path int true "record id"
// @Success  200 {file} binary
// @Failure  404 {object} errorPayload
// @Router   /signatures/{id}/proof.png [get]
func GetProofQR(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		png, err := svc.ProofQR(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Type("png")
		return c.Send(png)
	}
}

// GetDocument redirects to a presigned download of the archived original.
//
// @Summary  Download the signed original
// @Tags     signatures
// @Param    id path int true "record id"
// @Success  307
// @Failure  404 {object} errorPayload
// @Failure  503 {object} errorPayload
// @Router   /signatures/{id}/document [get]
func GetDocument(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.DocumentURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Redirect(u, fiber.StatusTemporaryRedirect)
	}
}
