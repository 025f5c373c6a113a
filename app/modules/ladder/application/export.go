package ladderservice

import (
	"bytes"
	"context"
	"fmt"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/xuri/excelize/v2"
)

var rankingExportHeader = []any{"Position", "Name", "Level", "Gender", "Region", "Points", "Wins", "Losses", "Win Streak", "Provisional"}

const rankingSheet = "Ranking"

// ExportRankingXLSX renders a full category ranking as a spreadsheet.
func (s *LadderService) ExportRankingXLSX(ctx context.Context, category ladderdomain.Category) ([]byte, error) {
	if category == nil {
		return nil, invalid("category", "category is required")
	}
	players, _, err := s.repo.ListRanking(ctx, nil, category, 0, 0)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(players)+1)
	rows = append(rows, rankingExportHeader)
	for _, p := range players {
		rows = append(rows, []any{
			rankFor(category.Kind(), p.Ranks()),
			p.Name,
			p.Level.String(),
			string(p.Gender),
			p.Region,
			p.Points,
			p.Wins,
			p.Losses,
			p.WinStreak,
			p.Provisional,
		})
	}
	return buildRankingWorkbook(rows)
}

func buildRankingWorkbook(rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), rankingSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(rankingSheet, axis, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", idx+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(rankingExportHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(rankingSheet, "A1", lastHeader, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(rankingSheet, "B", "B", 28); err != nil {
		return nil, err
	}
	if err := f.SetPanes(rankingSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
