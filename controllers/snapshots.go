package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// 上传文件大小上限
const maxUploadSize = 50 << 20

// GetLatestSnapshot 获取最新快照摘要
// GET /api/snapshots/latest
func GetLatestSnapshot(c *gin.Context) {
	snap, err := analyzer.LatestSnapshot(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, snap.Summary(), "")
}

// ListSnapshots 获取最近导入的快照
// GET /api/snapshots?limit=N
func ListSnapshots(c *gin.Context) {
	snaps, err := analyzer.ListSnapshots(c.Request.Context(), int64(queryInt(c, "limit", 20)))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	summaries := make([]models.SnapshotSummary, 0, len(snaps))
	for _, s := range snaps {
		summaries = append(summaries, s.Summary())
	}
	utils.SuccessResponse(c, gin.H{"snapshots": summaries, "total": len(summaries)}, "")
}

// ImportSnapshot 上传销售明细工作簿，生成新快照
// POST /api/snapshots/import (multipart: file, sheet?, asOf?)
func ImportSnapshot(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fh, err := c.FormFile("file")
	if err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("file is required: "+err.Error()))
		return
	}

	var asOf time.Time
	if v := c.PostForm("asOf"); v != "" {
		if asOf, err = time.Parse(models.DayLayout, v); err != nil {
			utils.HandleError(c, utils.CreateBadRequestError("asOf must be YYYY-MM-DD"))
			return
		}
	}

	file, err := fh.Open()
	if err != nil {
		utils.HandleError(c, utils.NewAppError("读取上传文件失败", http.StatusBadRequest, err))
		return
	}
	defer file.Close()

	utils.Logger.Info().
		Str("file", fh.Filename).
		Int64("size", fh.Size).
		Str("user", user.Username).
		Msg("开始导入快照")

	res, err := analyzer.ImportWorkbook(c.Request.Context(), file, fh.Filename, c.PostForm("sheet"), asOf, nil)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, res, "snapshot imported", http.StatusCreated)
}
