/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: annotate.go
Description: Annotation generation. For every value of every literal, the rule is
narrowed to that single value and its confidence for each class is recorded. Rules
are annotated in parallel; the table must not change while this runs.
*/

package classify

import (
	"context"
	"runtime"

	"github.com/kleascm/marc-classifier/pkg/data"
	"github.com/kleascm/marc-classifier/pkg/rule"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Annotate returns the rules with per-value class distributions attached.
// Rules with an empty antecedent are returned unchanged.
func Annotate(ctx context.Context, table *data.Table, rules []*rule.Rule, logger *logrus.Logger) ([]*rule.Rule, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	target := table.Target()
	classValues := target.Values()
	classes := make([]string, len(classValues))
	for i, v := range classValues {
		classes[i] = v.Raw()
	}
	consequents := make([]rule.Consequent, len(classValues))
	for i, v := range classValues {
		consequents[i] = rule.ConsequentFor(target, v)
	}

	out := make([]*rule.Rule, len(rules))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, r := range rules {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.IsDefault() {
				out[i] = r
				return nil
			}
			out[i] = r.WithAnnotation(annotateRule(table, r, classes, consequents))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"rules":   len(rules),
		"classes": len(classes),
	}).Info("Annotation complete")
	return out, nil
}

func annotateRule(table *data.Table, r *rule.Rule, classes []string, consequents []rule.Consequent) *rule.Annotation {
	ann := rule.NewAnnotation(classes)
	for _, l := range r.Antecedent().Literals() {
		la := &rule.LiteralAnnotation{
			Attribute: l.Attribute().Name(),
			Numeric:   l.Attribute().IsNumeric(),
		}
		origins := l.Origins()
		for j, v := range l.Values() {
			narrow := r.Antecedent().Replace(l.Narrowed(v))
			va := rule.ValueAnnotation{
				Raw:          v.Raw(),
				Numeric:      v.Numeric(),
				Origin:       origins[j],
				Distribution: make([]float64, len(consequents)),
				Qualities:    make([]rule.Quality, len(consequents)),
			}
			for k, cons := range consequents {
				q := rule.ComputeQuality(table, narrow, cons)
				va.Qualities[k] = q
				va.Distribution[k] = q.Confidence()
			}
			la.Values = append(la.Values, va)
		}
		ann.Add(la)
	}
	return ann
}
