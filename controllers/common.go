package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/service"
	"github.com/BerniceZTT/territory_end/utils"
)

var analyzer *service.Analyzer

// SetAnalyzer 设置控制器使用的分析服务
func SetAnalyzer(a *service.Analyzer) {
	analyzer = a
}

// parseFilter 读取 region/owner/brand/from/to 查询参数。
// 区域经理只能查看自己的数据，owner 参数被忽略。
func parseFilter(c *gin.Context, user *utils.LoginUser) (models.Filter, error) {
	f := models.Filter{
		Region: c.Query("region"),
		Owner:  c.Query("owner"),
		Brand:  c.Query("brand"),
	}
	if user.IsRegionalManager() {
		if user.OwnerID == "" {
			return f, utils.CreateForbiddenError()
		}
		f.Owner = user.OwnerID
	}

	var err error
	if f.From, err = parseDay(c.Query("from")); err != nil {
		return f, utils.CreateBadRequestError("from must be YYYY-MM-DD")
	}
	if f.To, err = parseDay(c.Query("to")); err != nil {
		return f, utils.CreateBadRequestError("to must be YYYY-MM-DD")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, utils.CreateBadRequestError("to must not be before from")
	}
	return f, nil
}

func parseDay(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DayLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryInt 读取正整数查询参数，缺省或非法时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// currentFilter 读取当前用户和筛选条件，失败时已写出响应
func currentFilter(c *gin.Context) (*utils.LoginUser, models.Filter, bool) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return nil, models.Filter{}, false
	}
	f, err := parseFilter(c, user)
	if err != nil {
		utils.HandleError(c, err)
		return user, f, false
	}
	return user, f, true
}
