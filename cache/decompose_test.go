package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachevis/cache"
)

var _ = Describe("Decompose", func() {
	g := cache.Geometry{
		NumLines:  8,
		BlockSize: 16,
		Assoc:     2,
	}

	It("should compute the offset independently of the mode", func() {
		for _, addr := range []uint64{0x00, 0x0F, 0x10, 0x1A4, 0xFFFF} {
			want := addr % 16

			Expect(cache.Decompose(cache.ModeDirect, g, addr).Offset).
				To(Equal(want))
			Expect(cache.Decompose(cache.ModeSetAssociative, g, addr).Offset).
				To(Equal(want))
			Expect(cache.Decompose(cache.ModeFullyAssociative, g, addr).Offset).
				To(Equal(want))
		}
	})

	It("should decompose direct-mapped addresses", func() {
		// 0x1A4 -> block 26 -> index 26 mod 8 = 2, tag 26 / 8 = 3.
		f := cache.Decompose(cache.ModeDirect, g, 0x1A4)

		Expect(f.Offset).To(Equal(uint64(4)))
		Expect(f.Index).To(Equal(2))
		Expect(f.Tag).To(Equal(uint64(3)))
	})

	It("should map conflicting direct-mapped addresses to one index", func() {
		// Blocks 0 and 8 both land on index 0 with different tags.
		f1 := cache.Decompose(cache.ModeDirect, g, 0x00)
		f2 := cache.Decompose(cache.ModeDirect, g, 0x80)

		Expect(f1.Index).To(Equal(0))
		Expect(f2.Index).To(Equal(0))
		Expect(f1.Tag).To(Equal(uint64(0)))
		Expect(f2.Tag).To(Equal(uint64(1)))
	})

	It("should decompose set-associative addresses", func() {
		// 4 sets of 2 ways: block 26 -> set 26 mod 4 = 2, tag 26 / 4 = 6.
		f := cache.Decompose(cache.ModeSetAssociative, g, 0x1A4)

		Expect(f.Index).To(Equal(2))
		Expect(f.Tag).To(Equal(uint64(6)))
	})

	It("should use the whole block number as fully-associative tag", func() {
		f := cache.Decompose(cache.ModeFullyAssociative, g, 0x1A4)

		Expect(f.Index).To(Equal(cache.NoIndex))
		Expect(f.Tag).To(Equal(uint64(26)))
	})
})

var _ = Describe("Geometry", func() {
	It("should compute the number of sets and the total size", func() {
		g := cache.Geometry{NumLines: 8, BlockSize: 16, Assoc: 2}

		Expect(g.NumSets()).To(Equal(4))
		Expect(g.TotalSize()).To(Equal(uint64(128)))
	})

	It("should reject a non-power-of-two cache size", func() {
		g := cache.Geometry{NumLines: 6, BlockSize: 16, Assoc: 2}

		Expect(g.Validate()).To(HaveOccurred())
	})

	It("should reject a non-power-of-two block size", func() {
		g := cache.Geometry{NumLines: 8, BlockSize: 24, Assoc: 2}

		Expect(g.Validate()).To(HaveOccurred())
	})

	It("should reject an associativity that does not divide the size", func() {
		g := cache.Geometry{NumLines: 8, BlockSize: 16, Assoc: 3}

		Expect(g.Validate()).To(HaveOccurred())
	})

	It("should reject a non-positive associativity", func() {
		g := cache.Geometry{NumLines: 8, BlockSize: 16, Assoc: 0}

		Expect(g.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("Mode", func() {
	It("should round-trip mode names", func() {
		for _, m := range []cache.Mode{
			cache.ModeDirect,
			cache.ModeSetAssociative,
			cache.ModeFullyAssociative,
		} {
			parsed, err := cache.ParseMode(m.String())

			Expect(err).ToNot(HaveOccurred())
			Expect(parsed).To(Equal(m))
		}
	})

	It("should reject an unknown mode name", func() {
		_, err := cache.ParseMode("skewed-associative")

		Expect(err).To(HaveOccurred())
	})
})
