// Package templates renders the dashboard page.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"olist-dashboard/internal/models"
)

// BucketColors is the scatter palette, one color per value bucket.
var BucketColors = map[models.ValueBucket]string{
	models.BucketUnder200:    "pink",
	models.Bucket200To600:    "lightpink",
	models.Bucket600To1200:   "violet",
	models.Bucket1200To5000:  "orchid",
	models.Bucket5000To10000: "hotpink",
	models.BucketOver10000:   "magenta",
}

const initialSignals = `{
  "paymentTypes": [], "sellerCities": [],
  "paymentTypesData": {"labels": [], "values": []},
  "topCitiesData": {"labels": [], "values": []},
  "paymentValuesData": {"x": [], "y": [], "buckets": [], "labels": []},
  "sellerLocationsData": {"x": [], "y": []},
  "sellerHexbinData": {"x": [], "y": [], "counts": [], "width": 0, "height": 0},
  "sellerDensityData": {"x": [], "y": [], "z": [], "max": 0}
}`

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Olist Sellers &amp; Payments Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.1/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; min-height: 100vh; }
aside { width: 260px; padding: 1rem; background: #faf5fb; border-right: 1px solid #eee; }
main { flex: 1; padding: 1rem 2rem 3rem; }
select { width: 100%; min-height: 10rem; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(420px, 1fr)); gap: 1.5rem; }
.card { border: 1px solid #eee; border-radius: 8px; padding: 1rem; }
.status { font-size: 12px; color: gray; }
.status-error { color: #b00020; }
.modern-table { border-collapse: collapse; width: 100%; }
.modern-table td, .modern-table th { padding: .3rem .6rem; border-bottom: 1px solid #eee; text-align: left; }
.category-badge { background: #fde4f2; border-radius: 4px; padding: 0 .4rem; }
.footer { position: fixed; bottom: 0; width: 100%; background: white; text-align: center; padding: 10px; font-size: 12px; color: gray; }
</style>
</head>
`

const chartScript = `<script>
const charts = {};
function draw(id, type, data, options) {
  if (charts[id]) { charts[id].destroy(); }
  charts[id] = new Chart(document.getElementById(id), { type, data, options });
}
window.renderDashboard = function (s) {
  draw("payment-types-chart", "bar",
    { labels: s.paymentTypesData.labels, datasets: [{ label: "Transactions", data: s.paymentTypesData.values, backgroundColor: "orchid" }] });
  draw("top-cities-chart", "bar",
    { labels: s.topCitiesData.labels, datasets: [{ label: "Sellers", data: s.topCitiesData.values, backgroundColor: "hotpink" }] },
    { indexAxis: "y" });
  const pv = s.paymentValuesData;
  draw("payment-values-chart", "scatter",
    { datasets: [{ label: "Payment value", data: pv.x.map((x, i) => ({ x, y: pv.y[i] })),
      pointBackgroundColor: pv.buckets.map(b => bucketColors[b]), pointRadius: 2 }] },
    { animation: false });
  const sl = s.sellerLocationsData;
  draw("seller-locations-chart", "scatter",
    { datasets: [{ label: "Seller location", data: sl.x.map((x, i) => ({ x, y: sl.y[i] })),
      pointBackgroundColor: "rgba(199, 21, 133, 0.3)", pointRadius: 1 }] },
    { animation: false, scales: { x: { title: { display: true, text: "Longitude" } }, y: { title: { display: true, text: "Latitude" } } } });
  drawHexbin("seller-hexbin-chart", s.sellerHexbinData);
  drawDensity("seller-density-chart", s.sellerDensityData);
};
// canvasFor clears a canvas and maps data coordinates onto it, latitude up.
function canvasFor(id, x0, x1, y0, y1) {
  const c = document.getElementById(id);
  c.width = c.clientWidth || 480;
  c.height = Math.round(c.width * 0.75);
  const ctx = c.getContext("2d");
  ctx.clearRect(0, 0, c.width, c.height);
  const sx = c.width / ((x1 - x0) || 1), sy = c.height / ((y1 - y0) || 1);
  return { ctx, px: x => (x - x0) * sx, py: y => c.height - (y - y0) * sy, sx, sy };
}
function drawHexbin(id, hb) {
  if (!hb.counts.length) { canvasFor(id, 0, 1, 0, 1); return; }
  const v = canvasFor(id, Math.min(...hb.x) - hb.width, Math.max(...hb.x) + hb.width,
    Math.min(...hb.y) - hb.height, Math.max(...hb.y) + hb.height);
  const top = Math.log1p(Math.max(...hb.counts));
  const hx = hb.width / 2 * v.sx, h1 = hb.height / 6 * v.sy, h2 = hb.height / 3 * v.sy;
  hb.counts.forEach((n, i) => {
    const cx = v.px(hb.x[i]), cy = v.py(hb.y[i]);
    v.ctx.beginPath();
    v.ctx.moveTo(cx + hx, cy - h1); v.ctx.lineTo(cx + hx, cy + h1); v.ctx.lineTo(cx, cy + h2);
    v.ctx.lineTo(cx - hx, cy + h1); v.ctx.lineTo(cx - hx, cy - h1); v.ctx.lineTo(cx, cy - h2);
    v.ctx.closePath();
    v.ctx.fillStyle = "rgba(84, 39, 143, " + (0.15 + 0.85 * Math.log1p(n) / top) + ")";
    v.ctx.fill();
  });
}
const densityLevels = 8;
function drawDensity(id, dg) {
  if (!dg.z.length || !dg.max) { canvasFor(id, 0, 1, 0, 1); return; }
  const dx = dg.x[1] - dg.x[0], dy = dg.y[1] - dg.y[0];
  const v = canvasFor(id, dg.x[0] - dx / 2, dg.x[dg.x.length - 1] + dx / 2,
    dg.y[0] - dy / 2, dg.y[dg.y.length - 1] + dy / 2);
  dg.z.forEach((row, j) => row.forEach((z, i) => {
    const band = Math.floor(z / dg.max * densityLevels);
    if (band < 1) { return; }
    v.ctx.fillStyle = "rgba(84, 39, 143, " + (band / densityLevels) + ")";
    v.ctx.fillRect(v.px(dg.x[i] - dx / 2), v.py(dg.y[j] + dy / 2), dx * v.sx + 1, dy * v.sy + 1);
  }));
}
</script>
`

const exportPath = "/api/export.xlsx"

// exportHref rebuilds the download link from the bound filters, one query
// parameter per selected value.
const exportHref = `'` + exportPath + `?' + new URLSearchParams([` +
	`...$paymentTypes.map(v => ['payment_type', v]), ` +
	`...$sellerCities.map(v => ['seller_city', v])]).toString()`

// Dashboard renders the full page with the filter options of the loaded data.
func Dashboard(opts models.FilterOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(pageHead)
		fmt.Fprintf(&b, "<body data-signals='%s' data-on-load=\"@get('/sse/refresh-all')\" data-effect=\"window.renderDashboard && window.renderDashboard({paymentTypesData: $paymentTypesData, topCitiesData: $topCitiesData, paymentValuesData: $paymentValuesData, sellerLocationsData: $sellerLocationsData, sellerHexbinData: $sellerHexbinData, sellerDensityData: $sellerDensityData})\">\n",
			templ.EscapeString(initialSignals))

		b.WriteString("<aside>\n<h2>Filter Data</h2>\n")
		writeMultiselect(&b, "payment-types", "Payment types", "paymentTypes", opts.PaymentTypes)
		writeMultiselect(&b, "seller-cities", "Seller cities", "sellerCities", opts.SellerCities)
		fmt.Fprintf(&b, "<p><a href=\"%s\" data-attr-href=\"%s\">Download as XLSX</a></p>\n", exportPath, exportHref)
		b.WriteString("<div id=\"status-content\"></div>\n</aside>\n")

		b.WriteString("<main>\n<h1>Olist Sellers &amp; Payments</h1>\n<div class=\"grid\">\n")
		writeCard(&b, "Payment method distribution", "payment-types")
		writeCard(&b, "Cities with the most sellers", "top-cities")
		writeCard(&b, "Payment value distribution", "payment-values")
		writeCard(&b, "Seller locations", "seller-locations")
		writeCard(&b, "Seller concentration (hexbin)", "seller-hexbin")
		writeCard(&b, "Seller density", "seller-density")
		b.WriteString("</div>\n")
		writeLegend(&b)
		b.WriteString("<h3>Summary</h3>\n<div id=\"summary-content\"></div>\n</main>\n")

		palette, err := bucketPalette()
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "<script>const bucketColors = %s;</script>\n", palette)
		b.WriteString(chartScript)
		b.WriteString("<div class=\"footer\">Data: Olist public e-commerce dataset</div>\n</body>\n</html>\n")

		if err := ctx.Err(); err != nil {
			return err
		}
		_, err = io.WriteString(w, b.String())
		return err
	})
}

func writeMultiselect(b *strings.Builder, id, label, signal string, options []string) {
	fmt.Fprintf(b, "<label for=\"%s\">%s</label>\n", id, label)
	fmt.Fprintf(b, "<select id=\"%s\" multiple data-bind-%s data-on-change=\"@get('/sse/refresh-all')\">\n", id, kebab(signal))
	for _, opt := range options {
		v := templ.EscapeString(opt)
		fmt.Fprintf(b, "<option value=\"%s\">%s</option>\n", v, v)
	}
	b.WriteString("</select>\n")
}

func writeCard(b *strings.Builder, title, id string) {
	fmt.Fprintf(b, "<section class=\"card\">\n<h3>%s</h3>\n<canvas id=\"%s-chart\"></canvas>\n<div id=\"%s-content\" class=\"status\">Loading…</div>\n</section>\n",
		templ.EscapeString(title), id, id)
}

func writeLegend(b *strings.Builder) {
	b.WriteString("<ul class=\"legend\">\n")
	for _, bucket := range models.ValueBuckets {
		fmt.Fprintf(b, "<li><span style=\"color: %s\">&#9679;</span> %s</li>\n",
			BucketColors[bucket], templ.EscapeString(bucket.String()))
	}
	b.WriteString("</ul>\n")
}

// bucketPalette is the palette as a JSON array indexed by bucket.
func bucketPalette() (string, error) {
	colors := make([]string, len(models.ValueBuckets))
	for _, bucket := range models.ValueBuckets {
		colors[bucket] = BucketColors[bucket]
	}
	out, err := json.Marshal(colors)
	return string(out), err
}

func kebab(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
