// Package telemetry exposes the gateway's metric counters. Counters are
// fire-and-forget: recording never affects control flow.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/agglayer/agglayer-go")

// Stage counters for the intake pipeline, tagged by rollup id.
var (
	SendTx          metric.Int64Counter
	CheckTx         metric.Int64Counter
	VerifySignature metric.Int64Counter
	Execute         metric.Int64Counter
	VerifyZkp       metric.Int64Counter
	Settle          metric.Int64Counter
)

func init() {
	SendTx = newCounter("send_tx", "Number of proof submissions received")
	CheckTx = newCounter("check_tx", "Number of submissions that passed the registration check")
	VerifySignature = newCounter("verify_signature", "Number of submissions with a verified signature")
	Execute = newCounter("execute", "Number of submissions that passed the settlement dry-run")
	VerifyZkp = newCounter("verify_zkp", "Number of submissions with verified batch roots")
	Settle = newCounter("settle", "Number of submissions settled on chain")
}

func newCounter(name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("telemetry counter %s: %v", name, err))
	}
	return counter
}

// RollupID builds the rollup id attribute attached to every pipeline counter.
func RollupID(id uint32) attribute.KeyValue {
	return attribute.String("rollup_id", fmt.Sprintf("%d", id))
}

// Count increments a pipeline counter for the given rollup.
func Count(ctx context.Context, counter metric.Int64Counter, rollupID uint32) {
	counter.Add(ctx, 1, metric.WithAttributes(RollupID(rollupID)))
}
