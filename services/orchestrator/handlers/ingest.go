// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ingestTimeout bounds one document ingest round trip; chunking and
// embedding on the ingest side can take a while for large PDFs.
const ingestTimeout = 5 * time.Minute

// HandleIngest serves POST /v1/ingest by forwarding the uploaded
// document to the ingest service and relaying its JSON response.
//
// The orchestrator never parses document content itself; it only
// proxies the multipart upload so clients need a single authenticated
// endpoint.
func HandleIngest(ingestURL string) gin.HandlerFunc {
	client := &http.Client{Timeout: ingestTimeout}
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleIngest")
		defer span.End()

		if ingestURL == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingest service not configured"})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
			return
		}
		defer file.Close()

		body, contentType, err := repackUpload(file, header.Filename)
		if err != nil {
			slog.Error("Failed to repack ingest upload", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ingestURL+"/ingest", body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build ingest request"})
			return
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := client.Do(req)
		if err != nil {
			span.RecordError(err)
			slog.Error("Ingest service unreachable", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "ingest service unavailable"})
			return
		}
		defer resp.Body.Close()

		c.DataFromReader(resp.StatusCode, resp.ContentLength,
			resp.Header.Get("Content-Type"), resp.Body, nil)
	}
}

// repackUpload rebuilds a single-file multipart body from the incoming
// upload. Streaming the original body through would tie the upstream
// request to gin's parsed form; a fresh buffer keeps it self-contained.
func repackUpload(file multipart.File, filename string) (io.Reader, string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(fmt.Errorf("copy upload: %w", err))
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType(), nil
}
