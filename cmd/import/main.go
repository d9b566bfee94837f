// import 从命令行导入销售明细工作簿：
//
//	go run ./cmd/import -file sales.xlsx [-sheet sales] [-as-of 2025-06-30] [-dry-run] [-export plan.xlsx]
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/BerniceZTT/territory_end/config"
	"github.com/BerniceZTT/territory_end/exporter"
	"github.com/BerniceZTT/territory_end/importer"
	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/service"
	"github.com/BerniceZTT/territory_end/utils"
)

func main() {
	file := flag.String("file", "", "销售明细工作簿 (.xlsx)")
	sheet := flag.String("sheet", importer.SalesSheet, "明细工作表名")
	asOfFlag := flag.String("as-of", "", "快照日期 YYYY-MM-DD，默认取最晚销售日期")
	dryRun := flag.Bool("dry-run", false, "只解析和计算，不写入数据库")
	exportPath := flag.String("export", "", "导入后把计划写入该 xlsx 文件")
	flag.Parse()

	utils.InitLogger()
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	var asOf time.Time
	if *asOfFlag != "" {
		t, err := time.Parse(models.DayLayout, *asOfFlag)
		if err != nil {
			utils.Logger.Fatal().Err(err).Msg("无效的 -as-of")
		}
		asOf = t
	}

	if err := run(*file, *sheet, asOf, *dryRun, *exportPath); err != nil {
		utils.Logger.Fatal().Err(err).Msg("导入失败")
	}
}

func run(path, sheet string, asOf time.Time, dryRun bool, exportPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	total, err := importer.CountRows(bytes.NewReader(data), sheet)
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	analyticsCfg, err := config.LoadAnalyticsConfig(cfg.AnalyticsConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	bar := progressbar.Default(int64(total), "解析")

	if dryRun {
		wb, err := importer.ReadWorkbook(bytes.NewReader(data), sheet, bar)
		if err != nil {
			return err
		}
		snap := importer.Aggregate(wb, path, asOf)
		printSummary(snap.Summary(), len(wb.Rows), wb.Skipped)
		if exportPath == "" {
			return nil
		}
		resp, err := service.BuildDashboard(ctx, &snap, models.Filter{}, analyticsCfg.Planning, analyticsCfg, time.Now())
		if err != nil {
			return err
		}
		return writePlan(exportPath, resp.Plan)
	}

	if err := repository.InitMongoDB(cfg.MongoURI, cfg.MongoDB); err != nil {
		return err
	}
	defer repository.CloseMongoDB()

	analyzer := service.NewAnalyzer(analyticsCfg, nil, 0)
	res, err := analyzer.ImportWorkbook(ctx, bytes.NewReader(data), path, sheet, asOf, bar)
	if err != nil {
		return err
	}
	printSummary(res.Snapshot, res.Rows, res.Skipped)

	if exportPath == "" {
		return nil
	}
	f, err := os.Create(exportPath)
	if err != nil {
		return fmt.Errorf("创建导出文件失败: %w", err)
	}
	defer f.Close()
	return analyzer.ExportPlan(ctx, f, models.Filter{})
}

func writePlan(path string, rows []models.PlanRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建导出文件失败: %w", err)
	}
	defer f.Close()
	return exporter.WritePlan(f, rows)
}

func printSummary(sum models.SnapshotSummary, rows int, skipped []importer.RowError) {
	fmt.Println()
	fmt.Printf("snapshot %s: %d rows, %d buckets, %d clients, %d regions, total %.2f\n",
		sum.ID, rows, sum.BucketCount, sum.ClientCount, sum.RegionCount, sum.TotalFact)
	for _, s := range skipped {
		fmt.Printf("  skipped line %d: %s\n", s.Line, s.Err)
	}
}
