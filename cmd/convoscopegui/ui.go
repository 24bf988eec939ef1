package main

const bootHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Convoscope</title>
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f0f0f; color: #eee; height: 100vh; display: flex; flex-direction: column; overflow: hidden; }
        #boot { flex: 1; display: flex; flex-direction: column; align-items: center; justify-content: center; }
        #boot h1 { font-weight: 300; letter-spacing: 0.2em; }
        #log { width: 80%; max-width: 640px; height: 40vh; overflow-y: auto; background: #1a1a1a; border: 1px solid #333; border-radius: 6px; padding: 8px 12px; font-family: monospace; font-size: 12px; color: #8c8; }
        #log div { white-space: pre-wrap; }
        #app { display: none; flex: 1; border: none; width: 100%; }
    </style>
</head>
<body>
    <div id="boot">
        <h1>CONVOSCOPE</h1>
        <div id="log"></div>
    </div>
    <iframe id="app"></iframe>
    <script>
        window.addLogLine = function(msg) {
            var log = document.getElementById('log');
            var line = document.createElement('div');
            line.textContent = msg;
            log.appendChild(line);
            log.scrollTop = log.scrollHeight;
        };
        window.enableApp = function(url) {
            document.getElementById('boot').style.display = 'none';
            var app = document.getElementById('app');
            app.src = url;
            app.style.display = 'block';
        };
    </script>
</body>
</html>
`
