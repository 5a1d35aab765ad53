package vision

import (
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVision(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vision Suite")
}

var _ = Describe("parseExtraction", func() {
	var (
		content string
		result  *ExtractionResult
		err     error
	)

	JustBeforeEach(func() {
		result, err = parseExtraction(content)
	})

	When("parsing clean JSON", func() {
		BeforeEach(func() {
			content = `{"amount": 12.99, "currency": "GBP", "description": "Tesco groceries", "category": "Food"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse all fields", func() {
			Expect(result.Amount.String()).To(Equal("12.99"))
			Expect(result.Currency).To(Equal("GBP"))
			Expect(result.Description).To(Equal("Tesco groceries"))
			Expect(result.Category).To(Equal("Food"))
		})
	})

	When("the model wraps the JSON in code fences", func() {
		BeforeEach(func() {
			content = "```json\n{\"amount\": 5.50, \"currency\": \"EUR\", \"description\": \"Coffee\", \"category\": \"Food\"}\n```"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the amount", func() {
			Expect(result.Amount.String()).To(Equal("5.5"))
		})
	})

	When("the model adds prose around the JSON", func() {
		BeforeEach(func() {
			content = `Here is the extracted data: {"amount": 20, "currency": "USD", "description": "Taxi", "category": "Transportation"} Let me know if you need more.`
		})

		It("should slice out the JSON object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Description).To(Equal("Taxi"))
		})
	})

	When("the amount is missing", func() {
		BeforeEach(func() {
			content = `{"currency": "EUR", "description": "Something"}`
		})

		It("should return ErrExtractionFailed", func() {
			Expect(err).To(MatchError(ErrExtractionFailed))
		})
	})

	When("the amount is zero", func() {
		BeforeEach(func() {
			content = `{"amount": 0, "currency": "EUR"}`
		})

		It("should return ErrExtractionFailed", func() {
			Expect(err).To(MatchError(ErrExtractionFailed))
		})
	})

	When("there is no JSON object at all", func() {
		BeforeEach(func() {
			content = "I could not read this receipt."
		})

		It("should return ErrExtractionFailed", func() {
			Expect(err).To(MatchError(ErrExtractionFailed))
		})
	})

	When("the currency is not supported", func() {
		BeforeEach(func() {
			content = `{"amount": 1500, "currency": "JPY", "description": "Ramen", "category": "Food"}`
		})

		It("should fall back to the base currency", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Currency).To(Equal("EUR"))
		})
	})

	When("the description is empty", func() {
		BeforeEach(func() {
			content = `{"amount": 9.99, "currency": "EUR", "description": "", "category": "Shopping"}`
		})

		It("should use the default description", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Description).To(Equal("Unknown purchase"))
		})
	})

	When("the description is too long", func() {
		BeforeEach(func() {
			content = `{"amount": 9.99, "currency": "EUR", "description": "` + strings.Repeat("x", 300) + `", "category": "Shopping"}`
		})

		It("should clamp the description", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Description).To(HaveLen(100))
		})
	})

	When("a long description uses multi-byte characters", func() {
		BeforeEach(func() {
			content = `{"amount": 9.99, "currency": "CZK", "description": "` + strings.Repeat("ř", 150) + `", "category": "Shopping"}`
		})

		It("should clamp on rune boundaries", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(utf8.ValidString(result.Description)).To(BeTrue())
			Expect([]rune(result.Description)).To(HaveLen(100))
		})
	})

	When("the category is not recognized", func() {
		BeforeEach(func() {
			content = `{"amount": 9.99, "currency": "EUR", "description": "Misc", "category": "Gadgets"}`
		})

		It("should fall back to Other", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Category).To(Equal("Other"))
		})
	})

	When("currency code is lowercase", func() {
		BeforeEach(func() {
			content = `{"amount": 3.20, "currency": "czk", "description": "Tram ticket", "category": "Transportation"}`
		})

		It("should normalize it to uppercase", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Currency).To(Equal("CZK"))
		})
	})
})
