// Package idhash computes deterministic identifiers over simulation
// inputs so tuning runs are reproducible and auditable.
package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"solana-trading-core/internal/domain"
)

// DatasetHash computes a provenance hash over one asset's candle
// series. Identical candles always hash identically, so a tuning
// report can prove which data produced it.
func DatasetHash(asset, interval string, candles []domain.Candle) string {
	h := sha256.New()
	h.Write([]byte(asset))
	h.Write([]byte{'|'})
	h.Write([]byte(interval))
	h.Write([]byte{'|'})

	buf := make([]byte, 8)
	writeF := func(v float64) {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	for _, c := range candles {
		binary.BigEndian.PutUint64(buf, uint64(c.TimestampMs))
		h.Write(buf)
		writeF(c.Open)
		writeF(c.High)
		writeF(c.Low)
		writeF(c.Close)
		writeF(c.Volume)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// ConfigFingerprint computes a short deterministic identifier for a
// strategy config, used to key report rows.
func ConfigFingerprint(cfg domain.StrategyConfig) string {
	data := fmt.Sprintf("%s|%v|%v|%v|%d|%v|%v",
		cfg.SignalKind,
		cfg.StopLossPct,
		cfg.TakeProfitPct,
		cfg.TrailingStopPct,
		cfg.MaxHoldCandles,
		cfg.SlippagePct,
		cfg.FeePct,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}
