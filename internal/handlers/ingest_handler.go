package handler

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trade-reconciliation-backend/internal/models"
	"trade-reconciliation-backend/internal/services/ingestion"
)

type IngestHandler struct {
	service *ingestion.IngestionService
}

func NewIngestHandler(s *ingestion.IngestionService) *IngestHandler {
	return &IngestHandler{service: s}
}

// UploadBank accepts a bank clearing CSV, creates a batch and processes it
// in the background.
func (h *IngestHandler) UploadBank(c *gin.Context) {
	h.upload(c, models.SourceBank)
}

// UploadExchange accepts an exchange drop-copy CSV.
func (h *IngestHandler) UploadExchange(c *gin.Context) {
	h.upload(c, models.SourceExchange)
}

func (h *IngestHandler) upload(c *gin.Context, source string) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	replace, start, end, err := parseSnapshotParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Buffer the upload before responding; the multipart file is closed
	// when this handler returns.
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}

	log.Println("Received file:", header.Filename, "size:", header.Size, "source:", source)

	batch, err := h.service.CreateBatch(source, header.Filename)
	if err != nil {
		log.Printf("ERROR: could not create batch: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create batch"})
		return
	}

	go func() {
		reader := bytes.NewReader(data)
		if source == models.SourceBank {
			h.service.ProcessBank(batch.ID, reader, replace, start, end)
		} else {
			h.service.ProcessExchange(batch.ID, reader, replace, start, end)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": batch.ID.String(),
		"status":   "processing",
	})
}

// parseSnapshotParams reads the optional mode=replace&start=&end= query,
// which switches the upload from upsert to replace-snapshot semantics.
func parseSnapshotParams(c *gin.Context) (bool, time.Time, time.Time, error) {
	if c.Query("mode") != "replace" {
		return false, time.Time{}, time.Time{}, nil
	}
	start, end, err := parseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		return false, time.Time{}, time.Time{}, err
	}
	return true, start, end, nil
}

// GetBatch reports progress and row errors for one upload.
func (h *IngestHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	batch, err := h.service.GetBatch(batchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	c.JSON(http.StatusOK, batch)
}
