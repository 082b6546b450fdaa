package verifier_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	itest "github.com/luxfi/fliop/internal/test"
	ferrs "github.com/luxfi/fliop/pkg/errs"
	"github.com/luxfi/fliop/pkg/ring"
)

var _ = Describe("Inner-product verifier", func() {
	var ids = itest.PartyIDs(4)

	It("scenario 1: M=1, a=[1_G], b=[1_G], c=1_G succeeds with zero fold rounds", func(ctx SpecContext) {
		a := []ring.Element{ring.One()}
		b := []ring.Element{ring.One()}
		c := ring.One()

		aPerParty := distributeVector(GinkgoT(), a, len(ids))
		bPerParty := distributeVector(GinkgoT(), b, len(ids))
		cPerParty := distributeVector(GinkgoT(), []ring.Element{c}, len(ids))

		errs := runVerify(GinkgoT(), ids, aPerParty, bPerParty, cPerParty)
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
	}, NodeTimeout(30))

	It("scenario 2: M=2 with a correct inner product succeeds", func(ctx SpecContext) {
		g0 := gElement(2)
		g1 := gElement(3)
		a := []ring.Element{g0, g1}
		b := []ring.Element{g0, g1}
		c := gElement(13) // 2*2 + 3*3 = 13

		aPerParty := distributeVector(GinkgoT(), a, len(ids))
		bPerParty := distributeVector(GinkgoT(), b, len(ids))
		cPerParty := distributeVector(GinkgoT(), []ring.Element{c}, len(ids))

		errs := runVerify(GinkgoT(), ids, aPerParty, bPerParty, cPerParty)
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
	}, NodeTimeout(30))

	It("scenario 3: same as scenario 2 but c is tampered, verification fails", func(ctx SpecContext) {
		g0 := gElement(2)
		g1 := gElement(3)
		a := []ring.Element{g0, g1}
		b := []ring.Element{g0, g1}
		c := gElement(14) // tampered: should be 13

		aPerParty := distributeVector(GinkgoT(), a, len(ids))
		bPerParty := distributeVector(GinkgoT(), b, len(ids))
		cPerParty := distributeVector(GinkgoT(), []ring.Element{c}, len(ids))

		errs := runVerify(GinkgoT(), ids, aPerParty, bPerParty, cPerParty)
		failures := 0
		for _, err := range errs {
			if err != nil {
				failures++
			}
		}
		Expect(failures).To(Equal(len(ids)))
	}, NodeTimeout(30))

	It("rejects a non-power-of-two vector length with ShapeMismatch", func(ctx SpecContext) {
		a := []ring.Element{ring.One(), ring.One(), ring.One()}
		b := []ring.Element{ring.One(), ring.One(), ring.One()}
		c := ring.One()

		aPerParty := distributeVector(GinkgoT(), a, len(ids))
		bPerParty := distributeVector(GinkgoT(), b, len(ids))
		cPerParty := distributeVector(GinkgoT(), []ring.Element{c}, len(ids))

		errs := runVerify(GinkgoT(), ids, aPerParty, bPerParty, cPerParty)
		for _, err := range errs {
			Expect(err).To(HaveOccurred())
			kind, ok := ferrs.KindOf(err)
			Expect(ok).To(BeTrue())
			Expect(kind).To(Equal(ferrs.ShapeMismatch))
		}
	}, NodeTimeout(30))
})
