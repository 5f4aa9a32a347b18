package config

import "time"

// Logging
const (
	LogDir         = "./logs"
	LogFilePattern = "txunami-%s-%s.log" // date, level
	LogFilePrefix  = "txunami-"
	LogMaxAgeDays  = 30
)

// Defaults for fields GlobalConfig.Load leaves unset in the JSON document.
const (
	DefaultSplitPerTx = 23
	DefaultPort       = 18444
	DefaultMinUtxos   = 4_000_000
	DefaultMaxThreads = 10
	DefaultNet        = "regtest"
	DefaultBitcoind   = "127.0.0.1:18444"
)

// MaxSpeedRounds is the fixed number of fan-out rounds MaxSpeed runs, matching
// the original's hardcoded loop bound.
const MaxSpeedRounds = 20

// ScheduleAbsoluteTimeThreshold is the boundary original_source/main.cpp's
// SchedulePhase::LoadATime uses to decide whether a "start"/"end" value is an
// absolute Unix timestamp or an offset from process start.
const ScheduleAbsoluteTimeThreshold = 1_567_000_000

// ConnectRetryDelay is the pause between connection attempts in wireclient.
const ConnectRetryDelay = 1 * time.Second

// DrainInterval is how many sends pass before wireclient drains its inbound
// socket buffer, matching the original's "readCtr & 0xfff == 0" cadence.
const DrainInterval = 4096

// FixedPointShift is the leaky bucket's fixed-point scale factor.
const FixedPointShift = 1024

// netMagic maps a "net" config value to its 4-byte message-start sequence,
// matching original_source/main.cpp's REGTEST_MSG_START/NOLNET_MSG_START
// literals (regtest and chain_nol) and Bitcoin's well-known mainnet/testnet3
// magics (equal to chaincfg.MainNetParams.Net / chaincfg.TestNet3Params.Net
// byte-for-byte, in transmission order) for the two names the original left
// for a future CBaseChainParams lookup.
var netMagic = map[string][4]byte{
	"regtest":   {0xda, 0xb5, 0xbf, 0xfa},
	"chain_nol": {0x00, 0x00, 0x00, 0x00},
	"testnet":   {0x0b, 0x11, 0x09, 0x07},
	"mainnet":   {0xf9, 0xbe, 0xb4, 0xd9},
}

// NetMagic looks up the message-start bytes for a net name.
func NetMagic(net string) ([4]byte, bool) {
	m, ok := netMagic[net]
	return m, ok
}
