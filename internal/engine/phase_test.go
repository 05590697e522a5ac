package engine_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pmacsim/internal/config"
	"github.com/san-kum/pmacsim/internal/engine"
)

var _ = Describe("Engine phases", func() {
	var (
		cfg *config.Config
		eng *engine.Engine
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		cfg.SimTime = 0.1
		cfg.Seed = 9

		var err error
		eng, err = engine.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts in NotStarted with no result", func() {
		Expect(eng.Phase()).To(Equal(engine.NotStarted))
		_, err := eng.Result()
		Expect(err).To(MatchError(engine.ErrNotRun))
	})

	It("refuses to report before running", func() {
		Expect(eng.MarkReported()).To(MatchError(engine.ErrNotRun))
		Expect(eng.Phase()).To(Equal(engine.NotStarted))
	})

	Context("after a run", func() {
		var res *engine.Result

		BeforeEach(func() {
			var err error
			res, err = eng.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("computes metrics and exposes the result", func() {
			Expect(eng.Phase()).To(Equal(engine.MetricsComputed))
			got, err := eng.Result()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeIdenticalTo(res))
			Expect(res.Series.Len()).To(Equal(1000))
			Expect(res.Seed).To(Equal(int64(9)))
		})

		It("rejects a second run", func() {
			_, err := eng.Run(context.Background())
			Expect(err).To(MatchError(engine.ErrAlreadyRun))
			Expect(eng.Phase()).To(Equal(engine.MetricsComputed))
		})

		It("reports idempotently", func() {
			Expect(eng.MarkReported()).To(Succeed())
			Expect(eng.Phase()).To(Equal(engine.Reported))
			Expect(eng.MarkReported()).To(Succeed())
			Expect(eng.Phase()).To(Equal(engine.Reported))

			_, err := eng.Result()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("when the context is cancelled", func() {
		It("stops in Running without a result", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := eng.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(eng.Phase()).To(Equal(engine.Running))

			_, err = eng.Result()
			Expect(err).To(MatchError(engine.ErrNotRun))
			Expect(eng.MarkReported()).To(MatchError(engine.ErrNotRun))
		})
	})

	It("isolates the engine from later config edits", func() {
		cfg.SimTime = 50
		res, err := eng.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Config.SimTime).To(Equal(0.1))
	})

	DescribeTable("phase names",
		func(p engine.Phase, name string) {
			Expect(p.String()).To(Equal(name))
		},
		Entry("not started", engine.NotStarted, "not_started"),
		Entry("running", engine.Running, "running"),
		Entry("metrics", engine.MetricsComputed, "metrics_computed"),
		Entry("reported", engine.Reported, "reported"),
		Entry("unknown", engine.Phase(9), "phase(9)"),
	)
})
