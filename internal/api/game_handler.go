package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/service"
)

// GameHandler 对局处理器
type GameHandler struct {
	gameService service.GameService
}

// NewGameHandler 创建对局处理器
func NewGameHandler(gameService service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// ListGames 对局列表
// @Summary 对局列表
// @Tags Games
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} service.GameList
// @Router /api/v1/games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, err := h.gameService.ListGames(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

// GetGame 对局详情
// @Summary 对局详情
// @Tags Games
// @Produce json
// @Param id path string true "对局ID"
// @Success 200 {object} service.GameDetail
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	detail, err := h.gameService.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

// DeleteGame 删除对局
// @Summary 删除对局
// @Tags Games
// @Param id path string true "对局ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/games/{id} [delete]
func (h *GameHandler) DeleteGame(c *gin.Context) {
	if err := h.gameService.DeleteGame(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, SuccessResponse{Message: "对局已删除"})
}

// ExportPGN 导出PGN
// @Summary 导出PGN
// @Tags Games
// @Produce plain
// @Param id path string true "对局ID"
// @Success 200 {string} string
// @Router /api/v1/games/{id}/pgn [get]
func (h *GameHandler) ExportPGN(c *gin.Context) {
	pgn, err := h.gameService.ExportPGN(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+c.Param("id")+".pgn\"")
	c.Data(http.StatusOK, "application/x-chess-pgn; charset=utf-8", []byte(pgn))
}

// Verify 检查存储局面是否与重算结果一致
// @Summary 一致性检查
// @Tags Games
// @Produce json
// @Param id path string true "对局ID"
// @Router /api/v1/games/{id}/verify [get]
func (h *GameHandler) Verify(c *gin.Context) {
	bad, err := h.gameService.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if bad == nil {
		bad = []int{}
	}
	respondOK(c, gin.H{
		"consistent":   len(bad) == 0,
		"inconsistent": bad,
	})
}

// Rebuild 重算整盘棋
// @Summary 重算对局
// @Tags Games
// @Produce json
// @Param id path string true "对局ID"
// @Success 200 {object} service.GameDetail
// @Router /api/v1/games/{id}/rebuild [post]
func (h *GameHandler) Rebuild(c *gin.Context) {
	detail, err := h.gameService.Rebuild(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

// ImportPGN 导入PGN
// @Summary 导入PGN
// @Tags Games
// @Accept json
// @Produce json
// @Param request body service.ImportPGNRequest true "PGN"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/games/import-pgn [post]
func (h *GameHandler) ImportPGN(c *gin.Context) {
	var req service.ImportPGNRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	detail, err := h.gameService.CreateFromPGN(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"id":      detail.Game.ID,
		"moves":   len(detail.Moves),
		"message": "PGN导入成功",
	})
}

// SaveManual 保存记录纸
// @Summary 保存手工或OCR录入的记录纸
// @Tags Games
// @Accept json
// @Produce json
// @Param request body service.SaveRowsRequest true "记录行"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/games/save-manual [post]
func (h *GameHandler) SaveManual(c *gin.Context) {
	var req service.SaveRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	detail, err := h.gameService.CreateFromRows(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"id":      detail.Game.ID,
		"moves":   len(detail.Moves),
		"message": "对局已保存",
	})
}

// UpdateMove 修改着法
// @Summary 修改着法并重算后续局面
// @Tags Moves
// @Accept json
// @Produce json
// @Param id path string true "对局ID"
// @Param ply path int true "半回合序号"
// @Param request body service.UpdateMoveRequest true "新着法"
// @Success 200 {object} service.GameDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/games/{id}/moves/{ply} [put]
func (h *GameHandler) UpdateMove(c *gin.Context) {
	ply, err := strconv.Atoi(c.Param("ply"))
	if err != nil {
		respondError(c, errors.Newf(errors.ErrInvalidParam, "无效的序号: %s", c.Param("ply")))
		return
	}

	var req service.UpdateMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	detail, err := h.gameService.UpdateMove(c.Request.Context(), c.Param("id"), ply, req.SAN)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

// InsertMove 插入着法
// @Summary 在指定半回合之后插入着法
// @Tags Moves
// @Accept json
// @Produce json
// @Param id path string true "对局ID"
// @Param request body service.InsertMoveRequest true "插入位置和着法"
// @Success 200 {object} service.GameDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/games/{id}/moves/insert [post]
func (h *GameHandler) InsertMove(c *gin.Context) {
	var req service.InsertMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	detail, err := h.gameService.InsertMove(c.Request.Context(), c.Param("id"), *req.AfterPly, req.SAN)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}
