// Package processors contains the numeric processors of the base module.
package processors

import (
	"io"

	"go.uber.org/multierr"

	"github.com/birdayz/procnet/doc"
	"github.com/birdayz/procnet/network"
	"github.com/birdayz/procnet/workspace"
)

const (
	ClassConstant  = "org.procnet.Constant"
	ClassScale     = "org.procnet.Scale"
	ClassSum       = "org.procnet.Sum"
	ClassMean      = "org.procnet.Mean"
	ClassCollector = "org.procnet.Collector"
	ClassFailing   = "org.procnet.Failing"
	ClassPrinter   = "org.procnet.Printer"

	// Until version 2 of the base module Sum was called Summation.
	legacyClassSum = "org.procnet.Summation"
)

const (
	ModuleName    = "base"
	ModuleVersion = 2
)

// Register adds the base processors and float64 ports to r. Printers write
// to out.
func Register(r *network.Registry, out io.Writer) error {
	return multierr.Combine(
		r.Register(ClassConstant, func() network.Processor { return NewConstant() }),
		r.Register(ClassScale, func() network.Processor { return NewScale() }),
		r.Register(ClassSum, func() network.Processor { return NewSum() }),
		r.Register(ClassMean, func() network.Processor { return NewMean() }),
		r.Register(ClassCollector, func() network.Processor { return NewCollector() }),
		r.Register(ClassFailing, func() network.Processor { return NewFailing() }),
		r.Register(ClassPrinter, func() network.Processor { return NewPrinter(out) }),
		network.RegisterDataPorts[float64](r),
	)
}

// Module describes the base module and how documents of older versions are
// upgraded:
//
//	0 -> 1: ports were named "value.outport" and "value.inport"
//	1 -> 2: Summation was renamed to Sum
func Module(out io.Writer) workspace.Module {
	return workspace.Module{
		Name:    ModuleName,
		Version: ModuleVersion,
		Register: func(r *network.Registry) error {
			return Register(r, out)
		},
		Migrations: []workspace.Migration{
			{From: 0, Rules: legacyPortRules()},
			{From: 1, Rules: []doc.Rule{
				doc.AttributeReplacement{
					Path: []doc.Kind{doc.ProcessorKind(legacyClassSum)},
					Attr: doc.AttrType,
					Old:  legacyClassSum,
					New:  ClassSum,
				},
			}},
		},
	}
}

func legacyPortRules() []doc.Rule {
	var rules []doc.Rule
	for _, class := range []string{ClassConstant, ClassScale, ClassFailing, legacyClassSum, ClassMean} {
		rules = append(rules, doc.IdentifierReplacement{
			Path: []doc.Kind{doc.ProcessorKind(class), {Tag: doc.TagOutport}},
			Old:  "value.outport",
			New:  "out",
		})
	}
	for _, class := range []string{ClassScale, ClassFailing, legacyClassSum, ClassMean, ClassCollector} {
		rules = append(rules, doc.IdentifierReplacement{
			Path: []doc.Kind{doc.ProcessorKind(class), {Tag: doc.TagInport}},
			Old:  "value.inport",
			New:  "in",
		})
	}
	return rules
}
