// Package compose builds notification messages from valued pool events.
// Everything here is pure: no I/O and no clock reads.
package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"poolNotifier/internal/model"
)

const (
	ColorSwap     = 0x0099FF
	ColorDeposit  = 0x33FF33
	ColorWithdraw = 0xFF9A00

	TestNetworkFooter  = "Test network"
	DefaultExplorerURL = "https://etherscan.io"

	minUSDPlaces = 2
)

// Options carries the environment-dependent parts of a message.
type Options struct {
	Production        bool
	ExplorerURL       string
	FooterText        string
	FooterIconURL     string
	EscalationMention string
}

// Compose renders ev and its valuation into a NotificationMessage.
func Compose(ev model.RawEvent, val model.ValuationResult, pool model.PoolConfig, opts Options) model.NotificationMessage {
	explorer := strings.TrimRight(opts.ExplorerURL, "/")
	if explorer == "" {
		explorer = DefaultExplorerURL
	}

	title, color := header(ev.Kind)
	msg := model.NotificationMessage{
		Title: title,
		Color: color,
		URL:   fmt.Sprintf("%s/tx/%s", explorer, ev.TxHash),
		Author: model.Author{
			Name:    pool.Name,
			IconURL: pool.IconURL,
			URL:     fmt.Sprintf("%s/address/%s", explorer, pool.AddressFor(opts.Production)),
		},
		Description: description(ev, val, pool),
		Fields:      fields(ev.Kind, val, opts.EscalationMention),
		Footer:      footer(opts),
	}
	if ev.Timestamp > 0 {
		msg.Timestamp = time.Unix(int64(ev.Timestamp), 0).UTC()
	}
	return msg
}

func header(kind model.EventKind) (string, int) {
	switch {
	case kind == model.EventSwap:
		return "Token swap", ColorSwap
	case kind == model.EventAddLiquidity:
		return "Deposit", ColorDeposit
	case kind.IsWithdraw():
		return "Withdraw", ColorWithdraw
	default:
		return string(kind), 0
	}
}

func description(ev model.RawEvent, val model.ValuationResult, pool model.PoolConfig) string {
	switch {
	case ev.Kind == model.EventSwap && len(val.Tokens) == 2:
		return fmt.Sprintf("%s swapped %s to %s", ev.Actor, val.Tokens[0].Symbol, val.Tokens[1].Symbol)
	case ev.Kind == model.EventAddLiquidity:
		return fmt.Sprintf("%s added new liquidity to the %s", ev.Actor, pool.Name)
	case ev.Kind.IsWithdraw():
		return fmt.Sprintf("%s removed liquidity from the %s", ev.Actor, pool.Name)
	default:
		return ev.Actor
	}
}

func fields(kind model.EventKind, val model.ValuationResult, mention string) []model.Field {
	places := usdPlaces(val.Digits)
	if kind == model.EventSwap && len(val.Tokens) == 2 {
		out := []model.Field{
			{Name: "Input amount", Value: Entry(val.Tokens[0], places), Inline: true},
			{Name: "Output amount", Value: Entry(val.Tokens[1], places), Inline: true},
			{Name: "Exchange rate", Value: val.ExchangeRate.StringFixed(4)},
		}
		if val.Anomaly {
			out = append(out, model.Field{
				Name:  "Abnormal exchange rate",
				Value: strings.TrimSpace(fmt.Sprintf("Rate %s is at or below the alert threshold %s", val.ExchangeRate.StringFixed(4), mention)),
			})
		}
		return out
	}

	name := "Deposit amounts"
	if kind.IsWithdraw() {
		name = "Withdraw amounts"
	}
	return []model.Field{
		{Name: name, Value: JoinEntries(val.Tokens, places)},
		{Name: "Total value", Value: FormatUSD(val.TotalUSD, places)},
	}
}

func footer(opts Options) model.Footer {
	if !opts.Production {
		return model.Footer{Text: TestNetworkFooter, IconURL: opts.FooterIconURL}
	}
	return model.Footer{Text: opts.FooterText, IconURL: opts.FooterIconURL}
}

// usdPlaces is the number of fractional digits USD values are shown with.
// USD values are rounded to the event's display precision, so showing them
// with at least that many places keeps the fields summing to the total.
func usdPlaces(digits int) int {
	if digits < minUSDPlaces {
		return minUSDPlaces
	}
	return digits
}

// Entry renders one token value as "{amount} {symbol} ({$usd})".
func Entry(v model.TokenValue, places int) string {
	return fmt.Sprintf("%s %s (%s)", v.Amount, v.Symbol, FormatUSD(v.USD, places))
}

// JoinEntries renders every value with Entry, separated by ", ".
func JoinEntries(values []model.TokenValue, places int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, Entry(v, places))
	}
	return strings.Join(parts, ", ")
}

// FormatUSD renders d with places fractional digits and grouped thousands,
// for example "$1,234.56".
func FormatUSD(d decimal.Decimal, places int) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(int32(places))
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
