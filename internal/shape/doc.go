// Package shape classifies labeled tables by layout and indexes them through a
// single access operation.
//
// # Layouts
//
// Every table gets exactly one Tag, combining its arity (a *table.Series holds
// one indicator, a *table.Frame several) with its index kind:
//
//	SERIES_TIMESERIES    FRAME_TIMESERIES     one datetime level
//	SERIES_CROSSSECTION  FRAME_CROSSSECTION   one plain level
//	SERIES_PANEL         FRAME_PANEL          (datetime, plain) levels
//
// # Usage
//
//	acc, err := shape.New(closePanel)
//	if err != nil {
//	    return err
//	}
//	res, err := acc.Access(shape.Query{
//	    Time:      shape.At(day),
//	    Indicator: shape.At("close"),
//	})
//	vec, _ := res.Vector() // close of every asset on day
//
// # Errors
//
// Classification fails with EMPTY_TABLE or UNSUPPORTED_SHAPE errors. Access
// fails with INDEX errors when a required key is not concrete or a label is
// unknown (the latter wrapping ErrLabelNotFound), and with AMBIGUOUS_SELECTOR
// errors for combinations that select nothing definite. Use errors.Is with the
// sentinels of quantkit/internal/errors.
package shape
