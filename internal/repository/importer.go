package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var offerColumns = []string{
	"sender_country", "receiver_country", "platform",
	"fixed_fee", "percentage_fee", "fx_markup_percent", "settlement_time_days",
	"currency_sent", "currency_received", "supported",
}

var fxColumns = []string{
	"date", "base_currency", "target_currency", "avg_rate", "volatility_index",
}

// ImportOffers loads payment_methods.csv rows into the repository in file
// order. It returns the number of rows saved and stops at the first bad row.
func ImportOffers(ctx context.Context, repo domain.Repository, r io.Reader) (int, error) {
	rows, err := newTable(r, offerColumns)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		rec, line, err := rows.next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		offer, err := parseOffer(rec)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if err := repo.SaveOffer(ctx, offer); err != nil {
			return n, fmt.Errorf("line %d: failed to save offer: %w", line, err)
		}
		n++
	}
}

// ImportFXHistory loads historical_fx.csv rows into the repository.
func ImportFXHistory(ctx context.Context, repo domain.Repository, r io.Reader) (int, error) {
	rows, err := newTable(r, fxColumns)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		rec, line, err := rows.next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		sample, err := parseFXSample(rec)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if err := repo.SaveFXSample(ctx, sample); err != nil {
			return n, fmt.Errorf("line %d: failed to save fx sample: %w", line, err)
		}
		n++
	}
}

func parseOffer(rec map[string]string) (*domain.CorridorOffer, error) {
	fixed, err := parseFloat(rec, "fixed_fee")
	if err != nil {
		return nil, err
	}
	pct, err := parseFloat(rec, "percentage_fee")
	if err != nil {
		return nil, err
	}
	markup, err := parseFloat(rec, "fx_markup_percent")
	if err != nil {
		return nil, err
	}
	days, err := strconv.Atoi(rec["settlement_time_days"])
	if err != nil {
		return nil, fmt.Errorf("%w: settlement_time_days %q", ErrInvalidInput, rec["settlement_time_days"])
	}

	offer := &domain.CorridorOffer{
		PlatformOffer: domain.PlatformOffer{
			Platform:           rec["platform"],
			FixedFee:           fixed,
			PercentageFee:      pct,
			FXMarkupPercent:    markup,
			SettlementTimeDays: days,
			CurrencySent:       rec["currency_sent"],
			CurrencyReceived:   rec["currency_received"],
		},
		SenderCountry:   rec["sender_country"],
		ReceiverCountry: rec["receiver_country"],
		Supported:       strings.EqualFold(rec["supported"], "true"),
	}
	if err := offer.Validate(); err != nil {
		return nil, err
	}
	return offer, nil
}

func parseFXSample(rec map[string]string) (*domain.FXSample, error) {
	date, err := time.Parse(dateLayout, rec["date"])
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, rec["date"])
	}
	rate, err := parseFloat(rec, "avg_rate")
	if err != nil {
		return nil, err
	}
	vol, err := parseFloat(rec, "volatility_index")
	if err != nil {
		return nil, err
	}

	return &domain.FXSample{
		BaseCurrency:    rec["base_currency"],
		TargetCurrency:  rec["target_currency"],
		Date:            date,
		AvgRate:         rate,
		VolatilityIndex: vol,
	}, nil
}

func parseFloat(rec map[string]string, column string) (float64, error) {
	v, err := strconv.ParseFloat(rec[column], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidInput, column, rec[column])
	}
	return v, nil
}

// table reads CSV records as maps keyed by header name.
type table struct {
	reader *csv.Reader
	header []string
}

func newTable(r io.Reader, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	for _, col := range required {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidInput, col)
		}
	}

	return &table{reader: reader, header: header}, nil
}

func (t *table) next() (map[string]string, int, error) {
	fields, err := t.reader.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := t.reader.FieldPos(0)

	rec := make(map[string]string, len(t.header))
	for i, h := range t.header {
		if i < len(fields) {
			rec[h] = strings.TrimSpace(fields[i])
		}
	}
	return rec, line, nil
}
