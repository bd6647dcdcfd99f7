// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package errcode

import (
	"testing"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errno", func() {
	It("renders the taxonomy strings", func() {
		Expect(NoGroup.Error()).To(Equal("group not found"))
		Expect(FileTruncatedSnapData.Error()).To(Equal("truncated snapshot data"))
		Expect(Errno(1000).Error()).To(Equal("unknown error"))
	})

	It("classifies bare and wrapped errors", func() {
		Expect(Is(Inval, Inval)).To(BeTrue())
		Expect(Is(errors.Wrap(Inval, "context"), Inval)).To(BeTrue())
		Expect(Is(errors.Wrapf(Header, "line %d", 3), Inval)).To(BeFalse())
		Expect(Is(errors.New("plain"), Inval)).To(BeFalse())
		Expect(Is(nil, Inval)).To(BeFalse())
	})

	It("extracts the kind from a wrapped error", func() {
		code, ok := Of(errors.Wrap(NoVar, "lookup"))
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(NoVar))

		_, ok = Of(errors.New("plain"))
		Expect(ok).To(BeFalse())
	})
})

func TestErrCode(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ErrCode Tests")
}
