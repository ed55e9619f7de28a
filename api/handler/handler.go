package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contractscan/api/response"
	"contractscan/logic/ingestion/loaders"
	"contractscan/service"
	"contractscan/types"
)

type ContractHandler struct {
	analysisSvc *service.AnalysisService
	compareSvc  *service.CompareService
	exportSvc   *service.ExportService
}

func NewContractHandler(analysisSvc *service.AnalysisService, compareSvc *service.CompareService, exportSvc *service.ExportService) *ContractHandler {
	return &ContractHandler{
		analysisSvc: analysisSvc,
		compareSvc:  compareSvc,
		exportSvc:   exportSvc,
	}
}

// Analyze 粘贴文本或 base64 图片
func (h *ContractHandler) Analyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := h.analysisSvc.Analyze(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// Upload multipart 上传, 字段名为 file
func (h *ContractHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "no file received, check that the field name is 'file'")
		return
	}
	src, err := loaders.Load(fh)
	if err != nil {
		fail(c, err)
		return
	}

	req := types.AnalyzeRequest{
		FileName:     fh.Filename,
		FileType:     src.MIME,
		ContractType: c.PostForm("contractType"),
		ContractName: c.PostForm("contractName"),
		Venue:        c.PostForm("venue"),
	}
	switch src.Kind {
	case loaders.KindPDF:
		req.PDF = src.Data
	case loaders.KindImage:
		req.ImageData = src.DataURL()
	default:
		req.Content = string(src.Data)
	}
	slog.InfoContext(c.Request.Context(), "contract uploaded", "file", fh.Filename, "kind", src.Kind, "size", fh.Size)

	res, err := h.analysisSvc.Analyze(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ContractHandler) List(c *gin.Context) {
	var req types.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}
	res, err := h.analysisSvc.List(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ContractHandler) Search(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "query parameter q is required")
		return
	}
	res, err := h.analysisSvc.Search(c.Request.Context(), req.Query)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ContractHandler) Get(c *gin.Context) {
	res, err := h.analysisSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ContractHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.analysisSvc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

func (h *ContractHandler) Export(c *gin.Context) {
	file, err := h.exportSvc.Export(c.Request.Context(), c.Param("id"), strings.ToLower(c.Query("format")))
	if err != nil {
		fail(c, err)
		return
	}
	response.File(c, file.FileName, file.ContentType, file.Data)
}

func (h *ContractHandler) Compare(c *gin.Context) {
	var req types.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, service.ErrNotEnoughContracts.Error())
		return
	}
	res, err := h.compareSvc.Compare(c.Request.Context(), req.ContractIDs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

type AssistantHandler struct {
	chatSvc  *service.ChatService
	venueSvc *service.VenueService
}

func NewAssistantHandler(chatSvc *service.ChatService, venueSvc *service.VenueService) *AssistantHandler {
	return &AssistantHandler{chatSvc: chatSvc, venueSvc: venueSvc}
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "message is required")
		return
	}
	res, err := h.chatSvc.Chat(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *AssistantHandler) SearchVenues(c *gin.Context) {
	var req types.VenueSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "query is required")
		return
	}
	res, err := h.venueSvc.Search(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// StatusFor 把服务层错误映射为 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoContent),
		errors.Is(err, service.ErrUnreadablePDF),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, service.ErrNotEnoughContracts),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, loaders.ErrUnsupportedType),
		errors.Is(err, loaders.ErrTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrLLMUnavailable),
		errors.Is(err, service.ErrVisionUnavailable),
		errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
		msg = "internal error"
	}
	response.Fail(c, status, msg)
}
