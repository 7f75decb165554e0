// Package shipcheck runs the full pre-flight pipeline for one Expo project:
// resolve the app config, load the build profiles, evaluate the rule
// catalog, and aggregate the findings.
//
// It is the entry point shared by the CLI, watch mode and the MCP server.
//
// Usage:
//
//	r, err := shipcheck.New(shipcheck.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	res, err := r.Run(ctx, shipcheck.Request{Dir: "."})
//	if err != nil {
//	    // fatal precondition: no findings were produced
//	}
//	fmt.Println(res.Report.Verdict())
//
// Each Run builds fresh state; a Runner is safe for sequential reuse and
// for concurrent use as long as its probes are.
package shipcheck
