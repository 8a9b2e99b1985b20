package rod

const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title><style>.hero { color: red; }</style></head>
<body>
	<h1>Hello World</h1>
	<p>Top story of the day</p>
	<script>var x = 1;</script>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="testForm">
		<input id="username" type="text" name="username" placeholder="User name" />
		<select id="color"><option>red</option><option>blue</option></select>
		<button id="submit" type="button" onclick="document.getElementById('result').textContent = document.getElementById('username').value">Submit</button>
	</form>
	<div id="result"></div>
</body>
</html>`

	IframeHTML = `<!DOCTYPE html>
<html>
<body>
	<h1>Embedded</h1>
	<iframe id="pay" title="payment form" srcdoc="<button>Pay</button>"></iframe>
</body>
</html>`

	ScrollableHTML = `<!DOCTYPE html>
<html>
<body style="height: 5000px;">
	<h1 id="top">Top of Page</h1>
</body>
</html>`
)
