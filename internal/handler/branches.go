package handler

import (
	"net/http"
	"strings"

	"github.com/Pipe0105/visor-realtime/internal/apierror"
	"github.com/Pipe0105/visor-realtime/internal/dto"
	"github.com/Pipe0105/visor-realtime/internal/model"
	"github.com/Pipe0105/visor-realtime/internal/repository"

	"github.com/gin-gonic/gin"
)

type BranchesHandler struct {
	branches repository.BranchRepository
}

func NewBranchesHandler(branches repository.BranchRepository) *BranchesHandler {
	return &BranchesHandler{branches: branches}
}

// List handles GET /branches.
func (h *BranchesHandler) List(c *gin.Context) {
	branches, err := h.branches.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar sucursales"))
		return
	}

	resp := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		resp = append(resp, dto.ToBranchResponse(&branches[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /branches.
func (h *BranchesHandler) Create(c *gin.Context) {
	var req dto.CreateBranchRequest
	if !bindAndValidate(c, &req) {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := h.branches.FindByCode(c.Request.Context(), code); err == nil {
		c.JSON(http.StatusConflict, apierror.New("Ya existe una sucursal con ese codigo"))
		return
	}

	branch := &model.Branch{Name: strings.TrimSpace(req.Name), Code: code}
	if err := h.branches.Create(c.Request.Context(), branch); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al crear la sucursal"))
		return
	}
	c.JSON(http.StatusCreated, dto.ToBranchResponse(branch))
}
