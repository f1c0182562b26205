package alerts

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dmoralesf/valora/internal/contracts"
)

// csvHeader is the fixed Spanish export header consumed by downstream
// spreadsheets. Column order is part of the contract.
var csvHeader = []string{
	"Ticker", "Tipo", "Condición", "Valor Objetivo", "Valor Actual",
	"Estado", "Creado", "Disparado", "Mensaje",
}

const csvTimeLayout = "2006-01-02 15:04"

// ExportCSV writes the alerts as CSV: one header line plus one line per
// alert. Numeric values use two decimals; an untriggered alert leaves
// the Disparado column empty.
func ExportCSV(w io.Writer, alerts []*contracts.Alert) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, a := range alerts {
		triggeredAt := ""
		if a.TriggeredAt != nil {
			triggeredAt = a.TriggeredAt.Format(csvTimeLayout)
		}
		record := []string{
			a.Ticker,
			string(a.Type),
			string(a.Condition),
			fmt.Sprintf("%.2f", a.TargetValue),
			fmt.Sprintf("%.2f", a.CurrentValue),
			string(a.Status),
			a.CreatedAt.Format(csvTimeLayout),
			triggeredAt,
			a.Message,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
