package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/report"
)

// ContentKey hashes the inputs together with the rules and the holidays in
// effect over the attendance period. Equal keys mean equal results, so
// cached stages never go stale when the calendar changes.
func ContentKey(in Inputs, rules reconcile.Rules, holidays []generic.TimePoint) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(in); err != nil {
		return "", err
	}
	if err := enc.Encode(rules); err != nil {
		return "", err
	}
	days := make([]string, len(holidays))
	for i, d := range holidays {
		days[i] = d.String()
	}
	if err := enc.Encode(days); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// holidaysIn lists the calendar holidays falling inside the attendance
// period. A bad header yields none; the run itself reports that error.
func (p *Pipeline) holidaysIn(in Inputs) []generic.TimePoint {
	if p.Calendar == nil {
		return nil
	}
	schema, err := AttendanceSchema(in.Attendance.Header)
	if err != nil {
		return nil
	}
	var out []generic.TimePoint
	for _, d := range schema.Dates() {
		if p.Calendar.IsHoliday(p.Rules.CompanyID, d) {
			out = append(out, d)
		}
	}
	return out
}

// reconcileStage is the cached output of everything up to the engine.
// Reports are cheap and recomputed from it.
type reconcileStage struct {
	Period     generic.Period
	Grid       *reconcile.Grid
	Duplicates []report.Duplicate
}

func (p *Pipeline) loadStage(ctx context.Context, key string) (*reconcileStage, bool) {
	if p.Cache == nil || key == "" {
		return nil, false
	}
	payload, err := p.Cache.GetStage(ctx, generic.CacheKey{ContentKey: key, Stage: generic.StageReconcile})
	if err != nil {
		if !errors.Is(err, generic.ErrCacheMiss) {
			log.Printf("[Pipeline] Cache read failed for %s: %v", short(key), err)
		}
		return nil, false
	}
	var st reconcileStage
	if err := json.Unmarshal(payload, &st); err != nil {
		log.Printf("[Pipeline] Discarding unreadable cache entry %s: %v", short(key), err)
		return nil, false
	}
	return &st, true
}

func (p *Pipeline) storeStage(ctx context.Context, key string, st *reconcileStage) {
	if p.Cache == nil || key == "" {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		log.Printf("[Pipeline] Cannot encode stage for %s: %v", short(key), err)
		return
	}
	if err := p.Cache.PutStage(ctx, generic.CacheKey{ContentKey: key, Stage: generic.StageReconcile}, payload); err != nil {
		log.Printf("[Pipeline] Cache write failed for %s: %v", short(key), err)
	}
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
