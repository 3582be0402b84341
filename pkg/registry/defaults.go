package registry

// Units used by the built-in metrics.
const (
	UnitThroughput = "MB/s"
	UnitPercent    = "percent"
	UnitGigabytes  = "GB"
	UnitFiles      = "files"
	UnitCount      = "count"
	UnitMicros     = "micros"
	UnitSeconds    = "secs"
)

// Axis prerequisites. Each reporting cycle prints the Uptime(secs) header once for
// the DB stats and once per column family compaction block.
var (
	IntervalStep = mustSpec("interval_step", "Interval step",
		`Uptime\(secs\).*?(\d*\.\d*)\sinterval`, UnitSeconds, false)
	Uptime = mustSpec("uptime", "Uptime",
		`Uptime\(secs\).*?(\d*\.\d*)\stotal`, UnitSeconds, false)
)

func defaultSpecs() []MetricSpec {
	return []MetricSpec{
		mustSpec("interval_stall", "Interval Stall",
			`Interval\sstall.*?(\d*\.\d*)\spercent`, UnitPercent, false),
		mustSpec("cumulative_stall", "Cumulative Stall",
			`Cumulative\sstall.*?(\d*\.\d*)\spercent`, UnitPercent, false),
		mustSpec("interval_writes", "Interval Writes",
			`Interval\swrites.*?(\d*\.\d*)\sMB/s`, UnitThroughput, true),
		mustSpec("cumulative_writes", "Cumulative Writes",
			`Cumulative\swrites.*?(\d*\.\d*)\sMB/s`, UnitThroughput, true),
		mustSpec("cumulative_compaction", "Cumulative Compaction",
			`Cumulative\scompaction.*?(\d*\.\d*)\sMB/s`, UnitThroughput, true),
		mustSpec("interval_compaction", "Interval Compaction",
			`Interval\scompaction.*?(\d*\.\d*)\sMB/s`, UnitThroughput, true),
		// Both flush figures share one line; the trailing token tells them apart.
		mustSpec("cumulative_flush", "Cumulative Flush",
			`Flush\(GB\):\scumulative\s(\d*\.\d*)`, UnitGigabytes, true),
		mustSpec("interval_flush", "Interval Flush",
			`Flush\(GB\):.*?interval\s(\d*\.\d*)`, UnitGigabytes, true),
		mustSpec("l0_files", "L0 Files",
			`(?m)^\s+L0\s+(\d+)/\d+`, UnitFiles, true),
		mustSpec("l0_slowdown_stalls", "L0 Slowdown Stalls",
			`Stalls\(count\):\s(\d+)\slevel0_slowdown,`, UnitCount, true),
		mustSpec("get_p99", "Get P99 Latency",
			`rocksdb\.db\.get\.micros.*?P99\s:\s(\d*\.\d*)`, UnitMicros, true),
		mustSpec("write_p99", "Write P99 Latency",
			`rocksdb\.db\.write\.micros.*?P99\s:\s(\d*\.\d*)`, UnitMicros, true),
	}
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(defaultSpecs()...)
	if err != nil {
		panic("registry: " + err.Error())
	}

	return r
}
