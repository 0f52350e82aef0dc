package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"salesdesk/internal/domain"
)

// Денежные колонки выгружаются в долларах с двумя знаками

func dollars(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// WriteCallsCSV выгружает отчет по звонкам в CSV
func WriteCallsCSV(w io.Writer, rows []domain.CallsReportEvent) error {
	cw := csv.NewWriter(w)

	header := []string{"Scheduled At", "Lead", "Email", "Closer", "Setter", "Source", "Channel", "Pipeline Status", "Outcome", "Cash Collected", "Revenue"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		outcome := string(row.Outcome)
		if outcome == "" {
			outcome = "pending"
		}

		record := []string{
			row.ScheduledAt.Format(time.RFC3339),
			row.LeadName,
			row.LeadEmail,
			row.CloserName,
			row.SetterName,
			row.Source,
			row.Channel,
			row.PipelineStatus,
			outcome,
			dollars(row.CashCents),
			dollars(row.RevenueCents),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteClosersCSV выгружает таблицу клоузеров в CSV
func WriteClosersCSV(w io.Writer, rows []CloserMetrics) error {
	cw := csv.NewWriter(w)

	header := []string{"Closer", "Calls Booked", "Shows", "No Shows", "Offers", "Closes", "Show Rate", "Offer Rate", "Close Rate", "Cash Collected", "Revenue"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Name,
			strconv.Itoa(row.CallsBooked),
			strconv.Itoa(row.Shows),
			strconv.Itoa(row.NoShows),
			strconv.Itoa(row.Offers),
			strconv.Itoa(row.Closes),
			percent(row.ShowRate),
			percent(row.OfferRate),
			percent(row.CloseRate),
			dollars(row.CashCents),
			dollars(row.RevenueCents),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAttributionCSV выгружает дерево атрибуции в CSV,
// по строке на источник внутри канала
func WriteAttributionCSV(w io.Writer, tree []*domain.AttributionNode) error {
	cw := csv.NewWriter(w)

	header := []string{"Channel", "Source", "Calls", "Shows", "Closes", "Cash Collected"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, channel := range tree {
		rows := channel.Children
		if len(rows) == 0 {
			rows = []*domain.AttributionNode{{Key: channel.Key, Calls: channel.Calls, Shows: channel.Shows, Closes: channel.Closes, CashCents: channel.CashCents}}
		}
		for _, source := range rows {
			record := []string{
				channel.Key,
				source.Key,
				strconv.Itoa(source.Calls),
				strconv.Itoa(source.Shows),
				strconv.Itoa(source.Closes),
				dollars(source.CashCents),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSettersCSV выгружает таблицу сеттеров в CSV
func WriteSettersCSV(w io.Writer, rows []SetterMetrics) error {
	cw := csv.NewWriter(w)

	header := []string{"Setter", "Sets Booked", "Shows Held", "Closes", "Show Rate", "Close Rate", "Cash Collected"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Name,
			strconv.Itoa(row.SetsBooked),
			strconv.Itoa(row.ShowsHeld),
			strconv.Itoa(row.Closes),
			percent(row.ShowRate),
			percent(row.CloseRate),
			dollars(row.CashCents),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
