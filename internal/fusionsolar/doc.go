// Package fusionsolar implements a client for the Huawei FusionSolar
// northbound ("thirdData") HTTP API.
//
// This package manages:
//   - Session login with XSRF token handling and cookie persistence
//   - Automatic one-shot re-login when the server expires the session
//   - Plant and device inventory discovery
//   - Realtime KPI retrieval for plants and devices
//   - Mapping of vendor failure codes onto sentinel errors
//
// # Protocol
//
// All calls are JSON-over-POST against /thirdData endpoints. Login returns
// an XSRF-TOKEN cookie which must be echoed back as a request header on
// every subsequent call. The server responds with a common envelope:
//
//	{"success": true, "failCode": 0, "data": ...}
//
// A failCode of 305 means the session has expired and the client must log
// in again; 407 means the northbound account has exceeded its request
// frequency quota. The northbound API is heavily rate limited (realtime
// KPIs may be queried roughly once per five minutes per account), so this
// client surfaces 407 as ErrRateLimited rather than retrying.
//
// # Usage
//
//	client, err := fusionsolar.NewClient(cfg.FusionSolar)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout(ctx)
//
//	plants, err := client.PlantList(ctx)
package fusionsolar
