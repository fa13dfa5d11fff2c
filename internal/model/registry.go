package model

import (
	"slices"
	"strings"

	"github.com/Brownie44l1/tl-eval/internal/common"
)

// Family groups architectures that share input conventions.
type Family string

const (
	FamilyAlexNet    Family = "alexnet"
	FamilyVGG        Family = "vgg"
	FamilyResNet     Family = "resnet"
	FamilyDenseNet   Family = "densenet"
	FamilySqueezeNet Family = "squeezenet"
	FamilyMobileNet  Family = "mobilenet"
	FamilyInception  Family = "inception"
)

const (
	defaultInputSize   = 224
	inceptionInputSize = 299
)

// Architecture describes a backbone the evaluator knows how to feed.
type Architecture struct {
	Name      string
	Family    Family
	InputSize int
}

// UsesHighResInput reports whether the architecture expects 299px crops.
func (a Architecture) UsesHighResInput() bool {
	return a.InputSize == inceptionInputSize
}

var registry = map[string]Architecture{}

func register(name string, family Family) {
	size := defaultInputSize
	if family == FamilyInception {
		size = inceptionInputSize
	}
	registry[strings.ToLower(name)] = Architecture{Name: name, Family: family, InputSize: size}
}

func init() {
	register("AlexNet", FamilyAlexNet)
	register("VGG-16", FamilyVGG)
	register("VGG-19", FamilyVGG)
	register("ResNet-18", FamilyResNet)
	register("ResNet-34", FamilyResNet)
	register("ResNet-50", FamilyResNet)
	register("ResNet-101", FamilyResNet)
	register("ResNet-152", FamilyResNet)
	register("DenseNet-121", FamilyDenseNet)
	register("DenseNet-161", FamilyDenseNet)
	register("SqueezeNet", FamilySqueezeNet)
	register("MobileNetV2", FamilyMobileNet)
	register("InceptionV3", FamilyInception)
}

// Lookup finds an architecture by name, ignoring case.
func Lookup(name string) (Architecture, error) {
	arch, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Architecture{}, common.Errorf(common.ErrModelLoad, "unknown architecture %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return arch, nil
}

// Names lists the registered architectures in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, arch := range registry {
		names = append(names, arch.Name)
	}
	slices.Sort(names)
	return names
}
