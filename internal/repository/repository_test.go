package repository

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "kestrel-test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func offer(sender, receiver, platform string, fixed float64) *domain.CorridorOffer {
	return &domain.CorridorOffer{
		PlatformOffer: domain.PlatformOffer{
			Platform:           platform,
			FixedFee:           fixed,
			PercentageFee:      0.5,
			FXMarkupPercent:    1.0,
			SettlementTimeDays: 2,
			CurrencySent:       "USD",
			CurrencyReceived:   "INR",
		},
		SenderCountry:   sender,
		ReceiverCountry: receiver,
		Supported:       true,
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndListOffers", func(t *testing.T) {
		for _, o := range []*domain.CorridorOffer{
			offer("US", "IN", "Wise", 5),
			offer("US", "IN", "Remitly", 3.99),
			offer("US", "IN", "Bank", 25),
		} {
			if err := repo.SaveOffer(ctx, o); err != nil {
				t.Fatalf("SaveOffer failed: %v", err)
			}
		}

		offers, err := repo.ListOffers(ctx, "US", "IN")
		if err != nil {
			t.Fatalf("ListOffers failed: %v", err)
		}
		if len(offers) != 3 {
			t.Fatalf("expected 3 offers, got %d", len(offers))
		}

		// Insertion order is preserved, not alphabetical.
		want := []string{"Wise", "Remitly", "Bank"}
		for i, o := range offers {
			if o.Platform != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], o.Platform)
			}
		}
		if offers[1].FixedFee != 3.99 {
			t.Errorf("expected fixed fee 3.99, got %v", offers[1].FixedFee)
		}
		if !offers[0].Supported {
			t.Error("expected supported offer")
		}
	})

	t.Run("UpsertKeepsPosition", func(t *testing.T) {
		updated := offer("US", "IN", "Wise", 7.5)
		updated.Supported = false
		if err := repo.SaveOffer(ctx, updated); err != nil {
			t.Fatalf("SaveOffer failed: %v", err)
		}

		offers, err := repo.ListOffers(ctx, "US", "IN")
		if err != nil {
			t.Fatalf("ListOffers failed: %v", err)
		}
		if len(offers) != 3 {
			t.Fatalf("expected 3 offers after upsert, got %d", len(offers))
		}
		if offers[0].Platform != "Wise" || offers[0].FixedFee != 7.5 || offers[0].Supported {
			t.Errorf("unexpected upserted offer: %+v", offers[0])
		}
	})

	t.Run("UnknownCorridor", func(t *testing.T) {
		offers, err := repo.ListOffers(ctx, "FR", "SN")
		if err != nil {
			t.Fatalf("ListOffers failed: %v", err)
		}
		if offers == nil || len(offers) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", offers)
		}
	})

	t.Run("ListCorridors", func(t *testing.T) {
		if err := repo.SaveOffer(ctx, offer("GB", "NG", "Wise", 1)); err != nil {
			t.Fatalf("SaveOffer failed: %v", err)
		}

		corridors, err := repo.ListCorridors(ctx)
		if err != nil {
			t.Fatalf("ListCorridors failed: %v", err)
		}
		if len(corridors) != 2 {
			t.Fatalf("expected 2 corridors, got %d", len(corridors))
		}
		if corridors[1].Key() != "US->IN" || corridors[1].OfferCount != 3 {
			t.Errorf("unexpected corridor: %+v", corridors[1])
		}
	})

	t.Run("RejectsInvalidOffer", func(t *testing.T) {
		bad := offer("US", "IN", "Shady", -1)
		if err := repo.SaveOffer(ctx, bad); !errors.Is(err, domain.ErrInvalidOffer) {
			t.Errorf("expected ErrInvalidOffer, got %v", err)
		}

		noCorridor := offer("", "IN", "Wise", 1)
		if err := repo.SaveOffer(ctx, noCorridor); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("FXHistory", func(t *testing.T) {
		samples := []domain.FXSample{
			{BaseCurrency: "USD", TargetCurrency: "INR", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), AvgRate: 83.1, VolatilityIndex: 0.2},
			{BaseCurrency: "USD", TargetCurrency: "INR", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), AvgRate: 83.0, VolatilityIndex: 0.1},
			{BaseCurrency: "GBP", TargetCurrency: "NGN", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), AvgRate: 1500, VolatilityIndex: 0.4},
		}
		for i := range samples {
			if err := repo.SaveFXSample(ctx, &samples[i]); err != nil {
				t.Fatalf("SaveFXSample failed: %v", err)
			}
		}

		all, err := repo.ListFXHistory(ctx)
		if err != nil {
			t.Fatalf("ListFXHistory failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 samples, got %d", len(all))
		}

		pair, err := repo.ListFXHistoryForPair(ctx, "USD", "INR")
		if err != nil {
			t.Fatalf("ListFXHistoryForPair failed: %v", err)
		}
		if len(pair) != 2 {
			t.Fatalf("expected 2 samples, got %d", len(pair))
		}
		if !pair[0].Date.Equal(samples[1].Date) {
			t.Errorf("expected samples ordered by date, got %v first", pair[0].Date)
		}
	})

	t.Run("RejectsSampleWithoutDate", func(t *testing.T) {
		err := repo.SaveFXSample(ctx, &domain.FXSample{BaseCurrency: "USD", TargetCurrency: "INR"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := New(domain.RepositoryConfig{Driver: "mysql"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{driver: "postgres"}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("unexpected rebind: %s", got)
	}

	lite := &SQLRepository{driver: "sqlite"}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query should be unchanged, got %s", got)
	}
}

func TestImportOffers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := `sender_country,receiver_country,platform,fixed_fee,percentage_fee,fx_markup_percent,settlement_time_days,currency_sent,currency_received,supported
US, IN ,Wise,5,0.5,1.0,2,USD,INR,TRUE
US,IN,Remitly,3.99,0,1.5,1,USD,INR,true
US,IN,Bank,25,0,2.5,3,USD,INR,False
`
	n, err := ImportOffers(ctx, repo, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ImportOffers failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}

	offers, err := repo.ListOffers(ctx, "US", "IN")
	if err != nil {
		t.Fatalf("ListOffers failed: %v", err)
	}
	if len(offers) != 3 {
		t.Fatalf("expected 3 offers, got %d", len(offers))
	}
	if !offers[0].Supported || !offers[1].Supported || offers[2].Supported {
		t.Errorf("unexpected supported flags: %v %v %v", offers[0].Supported, offers[1].Supported, offers[2].Supported)
	}
	if offers[2].Platform != "Bank" || offers[2].FXMarkupPercent != 2.5 {
		t.Errorf("unexpected last offer: %+v", offers[2])
	}

	t.Run("ColumnsByName", func(t *testing.T) {
		reordered := `platform,sender_country,receiver_country,supported,fixed_fee,percentage_fee,fx_markup_percent,settlement_time_days,currency_sent,currency_received
Wise,GB,NG,true,1,0.4,0.8,1,GBP,NGN
`
		if _, err := ImportOffers(ctx, repo, strings.NewReader(reordered)); err != nil {
			t.Fatalf("ImportOffers failed: %v", err)
		}
		offers, _ := repo.ListOffers(ctx, "GB", "NG")
		if len(offers) != 1 || offers[0].CurrencyReceived != "NGN" {
			t.Errorf("unexpected offers: %+v", offers)
		}
	})

	t.Run("MissingColumn", func(t *testing.T) {
		_, err := ImportOffers(ctx, repo, strings.NewReader("platform,fixed_fee\nWise,1\n"))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("BadNumber", func(t *testing.T) {
		bad := `sender_country,receiver_country,platform,fixed_fee,percentage_fee,fx_markup_percent,settlement_time_days,currency_sent,currency_received,supported
US,IN,Wise,five,0.5,1.0,2,USD,INR,true
`
		_, err := ImportOffers(ctx, repo, strings.NewReader(bad))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "line 2") {
			t.Errorf("expected line number in error, got %v", err)
		}
	})

	t.Run("NegativeFee", func(t *testing.T) {
		bad := `sender_country,receiver_country,platform,fixed_fee,percentage_fee,fx_markup_percent,settlement_time_days,currency_sent,currency_received,supported
US,IN,Wise,-5,0.5,1.0,2,USD,INR,true
`
		_, err := ImportOffers(ctx, repo, strings.NewReader(bad))
		if !errors.Is(err, domain.ErrInvalidOffer) {
			t.Errorf("expected ErrInvalidOffer, got %v", err)
		}
	})
}

func TestImportFXHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := `date,base_currency,target_currency,avg_rate,volatility_index
2024-01-01,USD,INR,83.0,0.10
2024-01-02,USD,INR,83.2,0.30
`
	n, err := ImportFXHistory(ctx, repo, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ImportFXHistory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	pair, err := repo.ListFXHistoryForPair(ctx, "USD", "INR")
	if err != nil {
		t.Fatalf("ListFXHistoryForPair failed: %v", err)
	}
	if len(pair) != 2 || pair[1].VolatilityIndex != 0.30 {
		t.Errorf("unexpected samples: %+v", pair)
	}

	t.Run("BadDate", func(t *testing.T) {
		bad := "date,base_currency,target_currency,avg_rate,volatility_index\n01/02/2024,USD,INR,83,0.1\n"
		if _, err := ImportFXHistory(ctx, repo, strings.NewReader(bad)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
