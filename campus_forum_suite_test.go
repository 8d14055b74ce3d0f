package main_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCampusForum(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CampusForum Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("loads and validates", func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromFile("api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("describes every forum surface", func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromFile("api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{
			"/auth/login",
			"/channels",
			"/channels/{id}/moderators/approve",
			"/groups/{id}/grants",
			"/posts",
			"/posts/{id}/vote",
			"/posts/{postID}/comments",
			"/tags",
			"/events",
			"/users/me/history",
		} {
			Expect(doc.Paths.Find(path)).NotTo(BeNil(), "missing path %s", path)
		}
	})
})
